package public

import (
	"strconv"
	"strings"

	"github.com/vitrina-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListCities 承运商城市搜索
func (h *Handler) ListCities(c *gin.Context) {
	cities := h.NomenclatureService.Cities(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	response.Success(c, cities)
}

// ListOffices 城市内的网点与快递柜
func (h *Handler) ListOffices(c *gin.Context) {
	cityID, err := strconv.Atoi(strings.TrimSpace(c.Query("city_id")))
	if err != nil || cityID <= 0 {
		respondError(c, response.CodeBadRequest, "city_id is invalid", nil)
		return
	}
	offices := h.NomenclatureService.Offices(c.Request.Context(), cityID)
	response.Success(c, offices)
}
