package directory

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"gorm.io/gorm"
)

// GormConnectors implements ConnectorDirectory on top of a gorm database.
type GormConnectors struct {
	db       *gorm.DB
	pageSize int
	life     *lifecycle
}

// NewGormConnectors creates a connector directory reading pageSize rows at a time.
func NewGormConnectors(db *gorm.DB, pageSize int) *GormConnectors {
	return &GormConnectors{db: db, pageSize: pageSize, life: newLifecycle()}
}

// AllConnectors yields every registered connector ordered by id.
func (d *GormConnectors) AllConnectors(ctx context.Context) iter.Seq2[*Connector, error] {
	return d.page(ctx, func(tx *gorm.DB) *gorm.DB { return tx })
}

// SupportedConnectors yields native connectors of an allowed type plus the explicitly listed ids.
func (d *GormConnectors) SupportedConnectors(ctx context.Context, nativeServiceTypes, connectorIDs []string) iter.Seq2[*Connector, error] {
	if len(nativeServiceTypes) == 0 && len(connectorIDs) == 0 {
		return func(func(*Connector, error) bool) {}
	}

	return d.page(ctx, func(tx *gorm.DB) *gorm.DB {
		var cond *gorm.DB
		if len(nativeServiceTypes) > 0 {
			cond = d.db.Where("is_native = ? AND service_type IN ?", true, nativeServiceTypes)
		}
		if len(connectorIDs) > 0 {
			if cond == nil {
				cond = d.db.Where("id IN ?", connectorIDs)
			} else {
				cond = cond.Or("id IN ?", connectorIDs)
			}
		}
		return tx.Where(cond)
	})
}

// FetchByID loads a single connector.
func (d *GormConnectors) FetchByID(ctx context.Context, id string) (*Connector, error) {
	qctx, done, err := d.life.bind(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var c Connector
	if err := d.db.WithContext(qctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrConnectorNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch connector %s: %w", id, d.life.translate(err))
	}
	return &c, nil
}

// StopWaiting aborts every in-flight query.
func (d *GormConnectors) StopWaiting() {
	d.life.stopWaiting()
}

// Close releases the directory. The shared database handle stays open.
func (d *GormConnectors) Close(ctx context.Context) error {
	d.life.close()
	return nil
}

func (d *GormConnectors) page(ctx context.Context, scope func(tx *gorm.DB) *gorm.DB) iter.Seq2[*Connector, error] {
	load := func(qctx context.Context, afterID string, limit int) ([]*Connector, error) {
		var rows []*Connector
		tx := scope(d.db.WithContext(qctx).Model(&Connector{}))
		if afterID != "" {
			tx = tx.Where("id > ?", afterID)
		}
		if err := tx.Order("id").Limit(limit).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list connectors: %w", err)
		}
		return rows, nil
	}
	return paginate(ctx, d.life, d.pageSize, load, func(c *Connector) string { return c.ID })
}
