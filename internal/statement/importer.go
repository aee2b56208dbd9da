package statement

import (
	"context"
	"fmt"
	"strings"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/metrics"
)

// DefaultCategory receives entries that name no category of their own.
const DefaultCategory = "uncategorized"

// ImportResult counts what one import run did.
type ImportResult struct {
	Imported          int
	Skipped           int
	CategoriesCreated int
}

// Importer writes parsed statement entries into a ledger store.
type Importer struct {
	store  ledger.Store
	logger *log.Logger
}

func NewImporter(store ledger.Store, logger *log.Logger) (*Importer, error) {
	if store == nil {
		return nil, fmt.Errorf("statement importer: %w: nil store", core.ErrInvalidConfiguration)
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentImport})
	}
	return &Importer{store: store, logger: logger}, nil
}

// Import writes the entries for one user. Categories are matched by name
// case-insensitively and created on demand. An entry the store rejects is
// skipped and counted, not fatal; a failing category write is fatal since
// every following entry would hit it too.
func (imp *Importer) Import(ctx context.Context, userID core.UserID, entries []Entry, fallbackCategory string) (ImportResult, error) {
	var res ImportResult
	if len(entries) == 0 {
		return res, nil
	}
	if strings.TrimSpace(fallbackCategory) == "" {
		fallbackCategory = DefaultCategory
	}

	existing, err := imp.store.ListCategories(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("load categories: %w", err)
	}
	byName := make(map[string]core.CategoryID, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	ensure := func(name string) (core.CategoryID, error) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if id, ok := byName[key]; ok {
			return id, nil
		}
		created, err := imp.store.AddCategory(ctx, core.Category{UserID: userID, Name: name})
		if err != nil {
			return 0, err
		}
		byName[key] = created.ID
		res.CategoriesCreated++
		imp.logger.Info("Created category for import",
			log.FieldCategoryID, int64(created.ID),
			"name", created.Name)
		return created.ID, nil
	}

	for _, e := range entries {
		name := e.Category
		if strings.TrimSpace(name) == "" {
			name = fallbackCategory
		}
		catID, err := ensure(name)
		if err != nil {
			return res, fmt.Errorf("ensure category %q: %w", name, err)
		}

		if _, err := imp.store.AddTransaction(ctx, core.Transaction{
			UserID:    userID,
			Category:  catID,
			Amount:    core.Money{Cents: e.AmountCents},
			Timestamp: e.Date,
			Memo:      e.Description,
		}); err != nil {
			res.Skipped++
			imp.logger.Warn("Skipping entry the store rejected",
				log.FieldError, err,
				"memo", e.Description,
				log.FieldAmountCents, e.AmountCents)
			continue
		}
		res.Imported++
		metrics.ImportedTransactions.Inc()
	}

	imp.logger.Info("Statement import finished",
		log.FieldUserID, int64(userID),
		"imported", res.Imported,
		"skipped", res.Skipped,
		"categories_created", res.CategoriesCreated)
	return res, nil
}
