package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 通用 JSON 对象字段（承运商请求/响应等审计数据）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return nil
	}
}

// Clone 浅拷贝，合并写入时避免修改原对象
func (j JSON) Clone() JSON {
	out := make(JSON, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}

// JSONList JSON 数组字段（物流事件等）
type JSONList []interface{}

// Value 实现 driver.Valuer 接口
func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *JSONList) Scan(value interface{}) error {
	if value == nil {
		*l = JSONList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return nil
	}
}
