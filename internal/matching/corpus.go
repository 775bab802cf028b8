package matching

import (
	"fmt"

	"github.com/rs/zerolog"
	"stamp-match-backend/internal/models"
)

const (
	RoleBase   = "base"
	RoleVector = "vector"
)

// Asset is one design file materialized for a matching run. Assets live
// only for the duration of the run and are never persisted.
type Asset struct {
	OrderID  int64
	Role     string
	BlobPath string
	Key      string
	Data     []byte
}

// Corpus is the full design set for one run plus the synthetic-key map
// used to resolve service matches back to orders.
type Corpus struct {
	Assets []Asset
	orders map[string]models.Order
}

func (c *Corpus) IsEmpty() bool {
	return len(c.Assets) == 0
}

// ResolveOrder maps a synthetic asset key back to its order.
func (c *Corpus) ResolveOrder(key string) (models.Order, bool) {
	order, ok := c.orders[key]
	return order, ok
}

// Downloader fetches a design blob by storage path.
type Downloader interface {
	DownloadFile(storagePath string) ([]byte, error)
}

type CorpusBuilder struct {
	designs Downloader
	log     zerolog.Logger
}

func NewCorpusBuilder(designs Downloader, logger zerolog.Logger) *CorpusBuilder {
	return &CorpusBuilder{designs: designs, log: logger}
}

// Build fetches the base and vector designs for every candidate order. A
// missing or unfetchable file is skipped; an order with no fetchable
// designs is excluded from the run, which is not an error.
func (b *CorpusBuilder) Build(orders []models.Order) *Corpus {
	corpus := &Corpus{orders: make(map[string]models.Order)}

	for _, order := range orders {
		roles := []struct {
			role string
			path string
			set  bool
		}{
			{RoleBase, order.BaseDesignPath.String, order.BaseDesignPath.Valid},
			{RoleVector, order.VectorDesignPath.String, order.VectorDesignPath.Valid},
		}

		for _, r := range roles {
			if !r.set || r.path == "" {
				continue
			}
			data, err := b.designs.DownloadFile(r.path)
			if err != nil {
				b.log.Debug().Int64("order_id", order.ID).Str("role", r.role).
					Err(err).Msg("skipping design asset")
				continue
			}
			key := AssetKey(r.role, order.ID)
			corpus.Assets = append(corpus.Assets, Asset{
				OrderID:  order.ID,
				Role:     r.role,
				BlobPath: r.path,
				Key:      key,
				Data:     data,
			})
			corpus.orders[key] = order
		}
	}

	return corpus
}

// AssetKey builds the stable synthetic id a design asset is known by in
// the service request and response.
func AssetKey(role string, orderID int64) string {
	return fmt.Sprintf("%s_%d", role, orderID)
}
