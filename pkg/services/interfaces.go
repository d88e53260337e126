package services

import "context"

// DataFetcher is the transport the snapshot service pulls documents through
type DataFetcher interface {
	FetchData(ctx context.Context, url string) ([]byte, error)
}

// BreakerResetter is implemented by fetchers that trip on failures and should
// start each cycle with a clean slate
type BreakerResetter interface {
	ResetBreaker()
}
