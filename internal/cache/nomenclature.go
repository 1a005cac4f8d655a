package cache

import (
	"fmt"
	"strings"
	"time"
)

// NomenclatureTTL 承运商城市/网点列表缓存时间
const NomenclatureTTL = 6 * time.Hour

// CitiesKey 城市搜索结果缓存键
func CitiesKey(search string) string {
	return fmt.Sprintf("econt:cities:%s", strings.ToLower(strings.TrimSpace(search)))
}

// OfficesKey 城市网点列表缓存键
func OfficesKey(cityID int) string {
	return fmt.Sprintf("econt:offices:%d", cityID)
}
