package tabsift

import (
	"log/slog"

	"github.com/tsawler/tabsift/config"
)

// ExtractOptions holds the configuration of an Extractor.
type ExtractOptions struct {
	config      config.Config
	concurrency int
	logger      *slog.Logger

	// Page selection, 1-indexed. For XLSX a page is a sheet. nil means
	// every page.
	pages []int
}

func defaultOptions() ExtractOptions {
	return ExtractOptions{
		config: config.Default(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	n := ExtractOptions{
		config:      o.config.Clone(),
		concurrency: o.concurrency,
		logger:      o.logger,
	}
	if o.pages != nil {
		n.pages = make([]int, len(o.pages))
		copy(n.pages, o.pages)
	}
	return n
}
