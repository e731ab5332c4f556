package syncapp

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/config"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
	"github.com/splitfin/syncpipe/internal/infrastructure/zoho"
)

// IndexedStore is a target collection that both accepts writes and feeds the
// reconciliation index.
type IndexedStore interface {
	pipeline.TargetWriter
	pipeline.IndexSource
}

// Stores bundles the per-collection repositories the stages write to.
type Stores struct {
	Brands    IndexedStore
	Customers IndexedStore
	Items     IndexedStore
	Orders    IndexedStore
	LineItems pipeline.TargetWriter
	Invoices  pipeline.TargetWriter
	Shipments pipeline.TargetWriter
}

// BuildStages wires the full set of collection stages in dependency order:
// brands and customers first, then items, orders, and finally the three
// order-dependent collections. The declared order is the run order.
func BuildStages(client *zoho.Client, stores Stores, cfg config.PipelineConfig) []Stage {
	customerChain := pipeline.NewChain(
		pipeline.ExactID{Space: pipeline.SpaceCustomerLegacyID, Field: "customer_id"},
		pipeline.NormalizedName{Space: pipeline.SpaceCustomerName, Field: "customer_name"},
		pipeline.Email{Space: pipeline.SpaceCustomerEmail, Field: "email"},
	)
	brandChain := pipeline.NewChain(
		pipeline.ExactID{Space: pipeline.SpaceBrandLegacyID, Field: "brand_id"},
		pipeline.NormalizedName{Space: pipeline.SpaceBrandName, Field: "brand"},
	)
	orderChain := pipeline.NewChain(
		pipeline.ExactID{Space: pipeline.SpaceOrderLegacyID, Field: "salesorder_id"},
		pipeline.DateAmount{
			CustomerSpace: pipeline.SpaceCustomerLegacyID,
			CustomerField: "customer_id",
			DateField:     "date",
			AmountField:   "total",
			WindowDays:    cfg.MatchWindowDays,
			Tolerance:     decimal.NewFromFloat(cfg.AmountTolerance),
			TieBreak:      pipeline.TieBreak(cfg.TieBreak),
		},
	)

	open := func(col zoho.Collection) func(pipeline.Cursor) Extractor {
		return func(resume pipeline.Cursor) Extractor {
			return zoho.NewExtractor(client, col, resume)
		}
	}

	return []Stage{
		{
			Name:  "brands",
			Open:  open(zoho.Collection{Name: "brands", Path: "/brands", ItemsKey: "brands", IDField: "brand_id"}),
			Map:   mapBrand,
			Store: stores.Brands,
		},
		{
			Name:  "customers",
			Open:  open(zoho.Collection{Name: "customers", Path: "/contacts", ItemsKey: "contacts", IDField: "contact_id"}),
			Map:   mapCustomer,
			Store: stores.Customers,
		},
		{
			Name:         "items",
			DependsOn:    []string{"brands"},
			Open:         open(zoho.Collection{Name: "items", Path: "/items", ItemsKey: "items", IDField: "item_id"}),
			Map:          itemMapper(brandChain),
			Store:        stores.Items,
			IndexSources: []pipeline.IndexSource{stores.Brands},
		},
		{
			Name:         "orders",
			DependsOn:    []string{"customers"},
			Open:         open(zoho.Collection{Name: "orders", Path: "/salesorders", ItemsKey: "salesorders", IDField: "salesorder_id"}),
			Map:          orderMapper(customerChain),
			Store:        stores.Orders,
			IndexSources: []pipeline.IndexSource{stores.Customers},
		},
		{
			Name:      "line_items",
			DependsOn: []string{"orders", "items"},
			Open: open(zoho.Collection{
				Name:       "line_items",
				Path:       "/salesorders",
				ItemsKey:   "salesorders",
				IDField:    "salesorder_id",
				DetailPath: func(id string) string { return "/salesorders/" + id },
				DetailKey:  "salesorder",
			}),
			Map:          mapLineItems,
			Store:        stores.LineItems,
			IndexSources: []pipeline.IndexSource{stores.Orders, stores.Items},
		},
		{
			Name:         "invoices",
			DependsOn:    []string{"customers", "orders"},
			Open:         open(zoho.Collection{Name: "invoices", Path: "/invoices", ItemsKey: "invoices", IDField: "invoice_id"}),
			Map:          invoiceMapper(customerChain, orderChain),
			Store:        stores.Invoices,
			IndexSources: []pipeline.IndexSource{stores.Customers, stores.Orders},
		},
		{
			Name:         "shipments",
			DependsOn:    []string{"orders"},
			Open:         open(zoho.Collection{Name: "shipments", Path: "/packages", ItemsKey: "packages", IDField: "package_id"}),
			Map:          mapShipment,
			Store:        stores.Shipments,
			IndexSources: []pipeline.IndexSource{stores.Orders},
		},
	}
}

// SelectStages filters stages by name, preserving declared order. An empty
// selection returns all stages; an unknown name is an error.
func SelectStages(stages []Stage, names []string) ([]Stage, error) {
	if len(names) == 0 {
		return stages, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []Stage
	for _, s := range stages {
		if wanted[s.Name] {
			out = append(out, s)
			delete(wanted, s.Name)
		}
	}
	for n := range wanted {
		return nil, fmt.Errorf("unknown collection %q", n)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Mappers
// ---------------------------------------------------------------------------

func mapBrand(rec *pipeline.SourceRecord, _ *pipeline.Index) ([]pipeline.TargetCandidate, error) {
	name := rec.String("name")
	normalized := pipeline.NormalizeName(name)
	if normalized == "" {
		return nil, errors.New("brand has no usable name")
	}
	return []pipeline.TargetCandidate{&models.BrandModel{
		LegacyBrandID:  rec.SourceID,
		Name:           name,
		NormalizedName: normalized,
	}}, nil
}

func mapCustomer(rec *pipeline.SourceRecord, _ *pipeline.Index) ([]pipeline.TargetCandidate, error) {
	name := rec.String("contact_name")
	if name == "" {
		name = rec.String("company_name")
	}
	if name == "" {
		return nil, errors.New("contact has no usable name")
	}
	m := &models.CustomerModel{
		LegacyCustomerID: rec.SourceID,
		Name:             name,
		NormalizedName:   pipeline.NormalizeName(name),
		Phone:            rec.String("phone"),
		BillingAddress:   rec.String("billing_address"),
		ShippingAddress:  rec.String("shipping_address"),
		Status:           orDefault(rec.String("status"), "active"),
	}
	if email := pipeline.NormalizeEmail(rec.String("email")); email != "" {
		m.Email = &email
	}
	return []pipeline.TargetCandidate{m}, nil
}

// itemMapper resolves the item's brand softly: the remote carries free-text
// manufacturer names that often match no brand, and an item without a brand
// is still worth migrating.
func itemMapper(brandChain pipeline.Chain) Mapper {
	return func(rec *pipeline.SourceRecord, idx *pipeline.Index) ([]pipeline.TargetCandidate, error) {
		name := rec.String("name")
		if name == "" {
			return nil, errors.New("item has no name")
		}
		m := &models.ItemModel{
			LegacyItemID: rec.SourceID,
			Name:         name,
			SKU:          rec.String("sku"),
			Rate:         rec.Decimal("rate"),
			Status:       orDefault(rec.String("status"), "active"),
		}
		if res, err := brandChain.Resolve(rec, idx); err == nil {
			id := res.TargetID
			m.BrandID = &id
		}
		return []pipeline.TargetCandidate{m}, nil
	}
}

// orderMapper requires a resolved customer; an order with no owner is a
// failed record, not a row with a dangling foreign key.
func orderMapper(customerChain pipeline.Chain) Mapper {
	return func(rec *pipeline.SourceRecord, idx *pipeline.Index) ([]pipeline.TargetCandidate, error) {
		res, err := customerChain.Resolve(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("customer: %w", err)
		}
		date := rec.Time("date")
		if date.IsZero() {
			return nil, errors.New("order has no parseable date")
		}
		return []pipeline.TargetCandidate{&models.OrderModel{
			LegacyOrderID: rec.SourceID,
			Number:        rec.String("salesorder_number"),
			CustomerID:    res.TargetID,
			OrderDate:     date,
			Total:         rec.Decimal("total"),
			Status:        orDefault(rec.String("status"), "confirmed"),
		}}, nil
	}
}

// mapLineItems fans an order detail out into one candidate per line. The
// order itself must already be migrated; individual lines referencing
// long-deleted items keep a null item id.
func mapLineItems(rec *pipeline.SourceRecord, idx *pipeline.Index) ([]pipeline.TargetCandidate, error) {
	orderID, ok := idx.Get(pipeline.SpaceOrderLegacyID, rec.SourceID)
	if !ok {
		return nil, fmt.Errorf("%w: order %s not migrated", pipeline.ErrUnresolved, rec.SourceID)
	}
	raw, _ := rec.Fields["line_items"].([]any)
	var out []pipeline.TargetCandidate
	for _, entry := range raw {
		fields, isMap := entry.(map[string]any)
		if !isMap {
			continue
		}
		line := pipeline.SourceRecord{Fields: fields}
		legacyID := line.String("line_item_id")
		if legacyID == "" {
			continue
		}
		m := &models.OrderLineItemModel{
			LegacyLineItemID: legacyID,
			OrderID:          orderID,
			Name:             line.String("name"),
			Quantity:         line.Decimal("quantity"),
			Rate:             line.Decimal("rate"),
			Amount:           line.Decimal("item_total"),
		}
		if itemID, found := idx.Get(pipeline.SpaceItemLegacyID, line.String("item_id")); found {
			m.ItemID = &itemID
		}
		out = append(out, m)
	}
	return out, nil
}

// invoiceMapper requires a resolved customer and links an order when the
// chain finds one: by remote order id first, then by date/amount proximity.
// An unlinked invoice is still written, flagged by its empty MatchedBy.
func invoiceMapper(customerChain, orderChain pipeline.Chain) Mapper {
	return func(rec *pipeline.SourceRecord, idx *pipeline.Index) ([]pipeline.TargetCandidate, error) {
		cres, err := customerChain.Resolve(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("customer: %w", err)
		}
		date := rec.Time("date")
		if date.IsZero() {
			return nil, errors.New("invoice has no parseable date")
		}
		m := &models.InvoiceModel{
			LegacyInvoiceID: rec.SourceID,
			Number:          rec.String("invoice_number"),
			CustomerID:      cres.TargetID,
			InvoiceDate:     date,
			Total:           rec.Decimal("total"),
			Status:          orDefault(rec.String("status"), "sent"),
		}
		if ores, err := orderChain.Resolve(rec, idx); err == nil {
			id := ores.TargetID
			m.OrderID = &id
			m.MatchedBy = ores.Strategy
		}
		return []pipeline.TargetCandidate{m}, nil
	}
}

func mapShipment(rec *pipeline.SourceRecord, idx *pipeline.Index) ([]pipeline.TargetCandidate, error) {
	orderID, ok := idx.Get(pipeline.SpaceOrderLegacyID, rec.String("salesorder_id"))
	if !ok {
		return nil, fmt.Errorf("%w: order %s not migrated", pipeline.ErrUnresolved, rec.String("salesorder_id"))
	}
	m := &models.ShipmentModel{
		LegacyShipmentID: rec.SourceID,
		Number:           rec.String("package_number"),
		OrderID:          orderID,
		Carrier:          rec.String("carrier"),
		TrackingNumber:   rec.String("tracking_number"),
		Status:           orDefault(rec.String("status"), "shipped"),
	}
	if d := rec.Time("date"); !d.IsZero() {
		m.ShipmentDate = &d
	}
	return []pipeline.TargetCandidate{m}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
