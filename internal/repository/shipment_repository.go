package repository

import (
	"errors"
	"strings"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"

	"gorm.io/gorm"
)

// ShipmentRepository 运单数据访问接口
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	GetByID(id uint) (*models.Shipment, error)
	GetByOrderID(orderID uint) (*models.Shipment, error)
	ListAdmin(filter ShipmentListFilter) ([]models.Shipment, int64, error)
	TryTransition(id uint, from, to string, updates map[string]interface{}) (bool, error)
	ClaimForSubmit(id uint, from string, expectedAttempts int) (bool, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) ShipmentRepository
}

// GormShipmentRepository GORM 实现
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository 创建运单仓库
func NewShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShipmentRepository) WithTx(tx *gorm.DB) ShipmentRepository {
	if tx == nil {
		return r
	}
	return &GormShipmentRepository{db: tx}
}

// Create 创建运单
func (r *GormShipmentRepository) Create(shipment *models.Shipment) error {
	return r.db.Create(shipment).Error
}

// GetByID 根据 ID 获取运单
func (r *GormShipmentRepository) GetByID(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.First(&shipment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByOrderID 根据订单获取运单
func (r *GormShipmentRepository) GetByOrderID(orderID uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// ListAdmin 后台运单列表
func (r *GormShipmentRepository) ListAdmin(filter ShipmentListFilter) ([]models.Shipment, int64, error) {
	var shipments []models.Shipment
	query := r.db.Model(&models.Shipment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, count := buildLikeCondition(r.db, []string{"tracking_number"})
		query = query.Where(condition, repeatLikeArgs(likePattern(search), count)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&shipments).Error; err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// TryTransition 条件更新状态：仅当当前状态为 from 时改为 to，返回是否命中
func (r *GormShipmentRepository) TryTransition(id uint, from, to string, updates map[string]interface{}) (bool, error) {
	if id == 0 || from == "" || to == "" {
		return false, errors.New("invalid shipment transition params")
	}
	values := map[string]interface{}{}
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = to
	result := r.db.Model(&models.Shipment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimForSubmit 认领一次提交：状态与提交次数同时匹配才置为 pending 并累加次数
func (r *GormShipmentRepository) ClaimForSubmit(id uint, from string, expectedAttempts int) (bool, error) {
	if id == 0 || from == "" || expectedAttempts < 0 {
		return false, errors.New("invalid shipment claim params")
	}
	result := r.db.Model(&models.Shipment{}).
		Where("id = ? AND status = ? AND submit_attempts = ?", id, from, expectedAttempts).
		Updates(map[string]interface{}{
			"status":          constants.ShipmentStatusPending,
			"submit_attempts": expectedAttempts + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Update 更新运单字段
func (r *GormShipmentRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Shipment{}).Where("id = ?", id).Updates(updates).Error
}
