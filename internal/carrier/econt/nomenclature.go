package econt

import (
	"context"
	"strings"

	"github.com/vitrina-shop/internal/logger"
)

const countryCodeBG = "BGR"

// City 城市
type City struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	NameEn   string `json:"name_en"`
	PostCode string `json:"post_code"`
}

// Office 网点或快递柜
type Office struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	IsAPS   bool   `json:"is_aps"` // 自助快递柜
	Address string `json:"address"`
}

// GetCities 查询城市，search 为空返回全部；失败时返回空列表
func (c *Client) GetCities(ctx context.Context, search string) []City {
	raw, status, err := c.post(ctx, "get_cities", endpointCities, map[string]interface{}{
		"countryCode": countryCodeBG,
	})
	if err != nil || status < 200 || status >= 300 {
		logger.Warnw("econt_get_cities_failed", "status", status, "error", err)
		return []City{}
	}
	items, _ := raw["cities"].([]interface{})
	needle := strings.ToLower(strings.TrimSpace(search))
	cities := make([]City, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		city := City{
			Name:     readString(entry, "name"),
			NameEn:   readString(entry, "nameEn"),
			PostCode: readString(entry, "postCode"),
		}
		if id, ok := readFloat(entry, "id"); ok {
			city.ID = int(id)
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(city.Name), needle) &&
			!strings.Contains(strings.ToLower(city.NameEn), needle) {
			continue
		}
		cities = append(cities, city)
	}
	return cities
}

// GetOffices 查询城市下的网点；失败时返回空列表
func (c *Client) GetOffices(ctx context.Context, cityID int) []Office {
	payload := map[string]interface{}{"countryCode": countryCodeBG}
	if cityID > 0 {
		payload["cityID"] = cityID
	}
	raw, status, err := c.post(ctx, "get_offices", endpointOffices, payload)
	if err != nil || status < 200 || status >= 300 {
		logger.Warnw("econt_get_offices_failed", "city_id", cityID, "status", status, "error", err)
		return []Office{}
	}
	items, _ := raw["offices"].([]interface{})
	offices := make([]Office, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		isAPS, _ := entry["isAPS"].(bool)
		offices = append(offices, Office{
			Code:    readString(entry, "code"),
			Name:    readString(entry, "name"),
			IsAPS:   isAPS,
			Address: readString(entry, "address", "fullAddress"),
		})
	}
	return offices
}
