// Package memory implementa los puertos de persistencia en memoria para pruebas y demos.
// Un único mutex serializa las transacciones; cada transacción trabaja sobre una copia del
// estado que solo reemplaza al original si fn termina sin error.
package memory

import (
	"context"
	"sync"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

type state struct {
	stores   map[string]*entity.Store
	settings map[string]map[string]string
	products map[string]*entity.Product
	variants map[string]*entity.Variant
	stocks   map[string]*entity.StoreStock
	history  []*entity.StockHistory
	sales    map[string]*entity.Sale
}

func newState() *state {
	return &state{
		stores:   map[string]*entity.Store{},
		settings: map[string]map[string]string{},
		products: map[string]*entity.Product{},
		variants: map[string]*entity.Variant{},
		stocks:   map[string]*entity.StoreStock{},
		sales:    map[string]*entity.Sale{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.stores {
		c.stores[k] = copyStore(v)
	}
	for b, m := range s.settings {
		cm := make(map[string]string, len(m))
		for k, v := range m {
			cm[k] = v
		}
		c.settings[b] = cm
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range s.variants {
		c.variants[k] = copyVariant(v)
	}
	for k, v := range s.stocks {
		c.stocks[k] = copyStock(v)
	}
	c.history = make([]*entity.StockHistory, len(s.history))
	for i, h := range s.history {
		c.history[i] = copyHistory(h)
	}
	for k, v := range s.sales {
		c.sales[k] = copySale(v)
	}
	return c
}

// DB almacén en memoria.
type DB struct {
	mu sync.Mutex
	st *state
}

// NewDB crea un almacén vacío.
func NewDB() *DB {
	return &DB{st: newState()}
}

// handle accede al estado: el de la transacción en curso (mutex ya tomado) o el global.
type handle struct {
	db *DB
	tx *state
}

func (h handle) do(fn func(st *state) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return fn(h.db.st)
}

func (d *DB) root() handle { return handle{db: d} }

// AddStore registra una tienda (datos semilla).
func (d *DB) AddStore(s *entity.Store) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.stores[s.ID] = copyStore(s)
}

// SetSetting fija una clave de configuración de la marca.
func (d *DB) SetSetting(brandID, key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.st.settings[brandID] == nil {
		d.st.settings[brandID] = map[string]string{}
	}
	d.st.settings[brandID][key] = value
}

// Repositorios fuera de transacción.
func (d *DB) Stores() *StoreRepo { return &StoreRepo{d.root()} }
func (d *DB) Settings() *SettingsRepo { return &SettingsRepo{d.root()} }
func (d *DB) Products() *ProductRepo { return &ProductRepo{d.root()} }
func (d *DB) Variants() *VariantRepo { return &VariantRepo{d.root()} }
func (d *DB) Stocks() *StockRepo { return &StockRepo{d.root()} }
func (d *DB) History() *HistoryRepo { return &HistoryRepo{d.root()} }
func (d *DB) Sales() *SaleRepo { return &SaleRepo{d.root()} }

func (d *DB) begin(ctx context.Context, fn func(h handle) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	tx := d.st.clone()
	if err := fn(handle{db: d, tx: tx}); err != nil {
		return err
	}
	d.st = tx
	return nil
}

// Run transacción de saldos y libro.
func (d *DB) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
) error) error {
	return d.begin(ctx, func(h handle) error {
		return fn(&StockRepo{h}, &HistoryRepo{h})
	})
}

// RunSales transacción del punto de venta.
func (d *DB) RunSales(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	variantRepo repository.VariantRepository,
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
) error) error {
	return d.begin(ctx, func(h handle) error {
		return fn(&SaleRepo{h}, &VariantRepo{h}, &StockRepo{h}, &HistoryRepo{h})
	})
}

// RunCatalog transacción de catálogo (lotes de importación, borrados).
func (d *DB) RunCatalog(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return d.begin(ctx, func(h handle) error {
		return fn(&ProductRepo{h}, &VariantRepo{h}, &StockRepo{h}, &HistoryRepo{h}, &SaleRepo{h})
	})
}

func copyStore(s *entity.Store) *entity.Store {
	c := *s
	return &c
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	if p.ReleaseYear != nil {
		y := *p.ReleaseYear
		c.ReleaseYear = &y
	}
	return &c
}

func copyVariant(v *entity.Variant) *entity.Variant {
	c := *v
	return &c
}

func copyStock(s *entity.StoreStock) *entity.StoreStock {
	c := *s
	if s.ActualStock != nil {
		a := *s.ActualStock
		c.ActualStock = &a
	}
	return &c
}

func copyHistory(h *entity.StockHistory) *entity.StockHistory {
	c := *h
	return &c
}

func copySale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Items = make([]*entity.SaleItem, len(s.Items))
	for i, it := range s.Items {
		ci := *it
		c.Items[i] = &ci
	}
	return &c
}
