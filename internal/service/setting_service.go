package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/repository"

	"github.com/shopspring/decimal"
)

// DeliverySetting 配送设置（单行，读取时不存在则按默认值创建）
type DeliverySetting struct {
	DeliveryEnabled  bool          `json:"delivery_enabled"`
	DeliveryPrice    models.Money  `json:"delivery_price"`
	FreeDeliveryOver *models.Money `json:"free_delivery_over"`
}

// DefaultDeliverySetting 默认配送设置
func DefaultDeliverySetting() DeliverySetting {
	return DeliverySetting{
		DeliveryEnabled: true,
		DeliveryPrice:   models.ZeroMoney(),
	}
}

// ToJSON 转换为设置存储结构
func (s DeliverySetting) ToJSON() models.JSON {
	value := models.JSON{
		constants.SettingFieldDeliveryEnabled:  s.DeliveryEnabled,
		constants.SettingFieldDeliveryPrice:    s.DeliveryPrice.String(),
		constants.SettingFieldFreeDeliveryOver: nil,
	}
	if s.FreeDeliveryOver != nil {
		value[constants.SettingFieldFreeDeliveryOver] = s.FreeDeliveryOver.String()
	}
	return value
}

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// GetDeliverySetting 读取配送设置，不存在时写入默认值
func (s *SettingService) GetDeliverySetting() (DeliverySetting, error) {
	if s == nil || s.repo == nil {
		return DefaultDeliverySetting(), nil
	}
	setting, err := s.repo.FirstOrCreate(constants.SettingKeyDeliveryConfig, DefaultDeliverySetting().ToJSON())
	if err != nil {
		return DefaultDeliverySetting(), err
	}
	if setting == nil {
		return DefaultDeliverySetting(), nil
	}
	return parseDeliverySetting(setting.ValueJSON)
}

// DeliverySettingInput 配送设置更新参数
type DeliverySettingInput struct {
	DeliveryEnabled  *bool   `json:"delivery_enabled"`
	DeliveryPrice    *string `json:"delivery_price"`
	FreeDeliveryOver *string `json:"free_delivery_over"`
	ClearFreeOver    bool    `json:"clear_free_delivery_over"`
}

// UpdateDeliverySetting 局部更新配送设置
func (s *SettingService) UpdateDeliverySetting(input DeliverySettingInput) (DeliverySetting, error) {
	current, err := s.GetDeliverySetting()
	if err != nil {
		return current, err
	}
	if input.DeliveryEnabled != nil {
		current.DeliveryEnabled = *input.DeliveryEnabled
	}
	if input.DeliveryPrice != nil {
		price, err := parseSettingMoney(*input.DeliveryPrice)
		if err != nil || price.Decimal.IsNegative() {
			return current, ErrDeliverySettingInvalid
		}
		current.DeliveryPrice = price
	}
	if input.ClearFreeOver {
		current.FreeDeliveryOver = nil
	} else if input.FreeDeliveryOver != nil {
		threshold, err := parseSettingMoney(*input.FreeDeliveryOver)
		if err != nil || threshold.Decimal.IsNegative() {
			return current, ErrDeliverySettingInvalid
		}
		current.FreeDeliveryOver = &threshold
	}
	if _, err := s.repo.Upsert(constants.SettingKeyDeliveryConfig, current.ToJSON()); err != nil {
		return current, err
	}
	return current, nil
}

func parseDeliverySetting(value models.JSON) (DeliverySetting, error) {
	result := DefaultDeliverySetting()
	if value == nil {
		return result, nil
	}
	if raw, ok := value[constants.SettingFieldDeliveryEnabled]; ok && raw != nil {
		enabled, err := parseSettingBool(raw)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrDeliverySettingInvalid, err)
		}
		result.DeliveryEnabled = enabled
	}
	if raw, ok := value[constants.SettingFieldDeliveryPrice]; ok && raw != nil {
		price, err := parseSettingMoney(raw)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrDeliverySettingInvalid, err)
		}
		result.DeliveryPrice = price
	}
	if raw, ok := value[constants.SettingFieldFreeDeliveryOver]; ok && raw != nil {
		if text, isString := raw.(string); !isString || strings.TrimSpace(text) != "" {
			threshold, err := parseSettingMoney(raw)
			if err != nil {
				return result, fmt.Errorf("%w: %v", ErrDeliverySettingInvalid, err)
			}
			result.FreeDeliveryOver = &threshold
		}
	}
	return result, nil
}

func parseSettingMoney(value interface{}) (models.Money, error) {
	switch v := value.(type) {
	case float64:
		return models.NewMoney(v), nil
	case int:
		return models.NewMoneyFromDecimal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return models.NewMoneyFromDecimal(decimal.NewFromInt(v)), nil
	case json.Number:
		return models.ParseMoney(v.String())
	case string:
		return models.ParseMoney(v)
	default:
		return models.ZeroMoney(), fmt.Errorf("unsupported value type")
	}
}

func parseSettingBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("unsupported value type")
	}
}
