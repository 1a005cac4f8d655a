package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	TransitionStatus(id uint, from, to string, updates map[string]interface{}) (bool, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	MarkNotificationSent(id uint, column string, at time.Time) (bool, error)
	GetItem(orderID, itemID uint) (*models.OrderItem, error)
	CreateItem(item *models.OrderItem) error
	UpdateItem(item *models.OrderItem) error
	DeleteItem(item *models.OrderItem) error
	ListTrackableOrderIDs(limit int) ([]uint, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func (r *GormOrderRepository) withRelations(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Preload("Items.Product").Preload("Shipment")
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items", "Shipment").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Omit("Product").Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单（含订单项、商品与运单）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withRelations(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.withRelations(r.db).Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListAdmin 后台订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.CustomerEmail != "" {
		query = query.Where("customer_email = ?", filter.CustomerEmail)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, count := buildLikeCondition(r.db, []string{"order_no", "customer_name", "customer_phone", "customer_email"})
		query = query.Where(condition, repeatLikeArgs(likePattern(search), count)...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Preload("Shipment").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// TransitionStatus 仅当订单仍处于 from 状态时改为 to，返回是否抢占成功
func (r *GormOrderRepository) TransitionStatus(id uint, from, to string, updates map[string]interface{}) (bool, error) {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields["status"] = to
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// MarkNotificationSent 仅当时间戳仍为空时写入，返回本次是否抢占成功
func (r *GormOrderRepository) MarkNotificationSent(id uint, column string, at time.Time) (bool, error) {
	switch column {
	case constants.OrderFieldConfirmationSentAt, constants.OrderFieldAdminNotifiedAt:
	default:
		return false, errors.New("unsupported notification column")
	}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND "+column+" IS NULL", id).
		Update(column, at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetItem 获取订单项
func (r *GormOrderRepository) GetItem(orderID, itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.Preload("Product").Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 新增订单项
func (r *GormOrderRepository) CreateItem(item *models.OrderItem) error {
	return r.db.Omit("Product").Create(item).Error
}

// UpdateItem 更新订单项数量与小计（快照字段不可改）
func (r *GormOrderRepository) UpdateItem(item *models.OrderItem) error {
	return r.db.Model(&models.OrderItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"quantity": item.Quantity,
			"total":    item.Total,
		}).Error
}

// DeleteItem 删除订单项
func (r *GormOrderRepository) DeleteItem(item *models.OrderItem) error {
	return r.db.Delete(&models.OrderItem{}, item.ID).Error
}

// ListTrackableOrderIDs 列出需要轮询物流状态的订单，从未查询过的优先，其余按上次查询时间轮转
func (r *GormOrderRepository) ListTrackableOrderIDs(limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uint
	err := r.db.Model(&models.Order{}).
		Joins("JOIN shipments ON shipments.order_id = orders.id").
		Where("orders.status NOT IN ?", []string{
			constants.OrderStatusCompleted,
			constants.OrderStatusCancelled,
			constants.OrderStatusReturnRequested,
			constants.OrderStatusReturned,
		}).
		Where("shipments.carrier_shipment_id <> ''").
		Where("shipments.status IN ?", []string{
			constants.ShipmentStatusConfirmed,
			constants.ShipmentStatusPickedUp,
			constants.ShipmentStatusInTransit,
			constants.ShipmentStatusReturning,
		}).
		Order("shipments.tracking_checked_at IS NOT NULL").
		Order("shipments.tracking_checked_at asc").
		Order("orders.id asc").
		Limit(limit).
		Pluck("orders.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
