package tokens

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/gagliardetto/solana-go"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/types"
)

const searchCacheTTL = 5 * time.Minute

type searchResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Icon       string `json:"icon"`
	Decimals   int32  `json:"decimals"`
	IsVerified bool   `json:"isVerified"`
}

// Searcher queries the aggregator's token search endpoint. Results are
// cached per query.
type Searcher struct {
	url        string
	httpClient *http.Client
	cache      *cache.Cache
	log        *zap.Logger
}

// NewSearcher creates a searcher for the endpoint at url.
func NewSearcher(url string, httpClient *http.Client, log *zap.Logger) *Searcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Searcher{
		url:        url,
		httpClient: httpClient,
		cache:      cache.New(searchCacheTTL, 2*searchCacheTTL),
		log:        logger.Named(log, "token-search"),
	}
}

// Search returns tokens matching query by symbol, name or mint.
func (s *Searcher) Search(ctx context.Context, query string) ([]types.Token, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	key := strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]types.Token), nil
	}

	var results []searchResult
	err := requests.URL(s.url).
		Param("query", query).
		Client(s.httpClient).
		ToJSON(&results).
		Fetch(ctx)
	if err != nil {
		s.log.Warn("token search failed", zap.String("query", query), zap.Error(err))
		return nil, apperror.New(apperror.CodeBackendError,
			apperror.WithMessage("Token search failed"), apperror.WithCause(err))
	}

	found := lo.Map(results, func(r searchResult, _ int) types.Token {
		return types.Token{
			Symbol:   r.Symbol,
			Name:     r.Name,
			Address:  r.ID,
			Decimals: r.Decimals,
			LogoURI:  r.Icon,
			Verified: r.IsVerified,
		}
	})
	s.cache.Set(key, found, cache.DefaultExpiration)
	return found, nil
}

// Resolver maps a symbol or mint address to a token, consulting the
// registry first and remote search second.
type Resolver struct {
	Registry *Registry
	Searcher *Searcher
}

// Resolve finds the token named by symbolOrMint.
func (r *Resolver) Resolve(ctx context.Context, symbolOrMint string) (types.Token, error) {
	if tok, ok := r.Registry.FindBySymbol(symbolOrMint); ok {
		return tok, nil
	}
	_, mintErr := solana.PublicKeyFromBase58(symbolOrMint)
	isMint := mintErr == nil
	if isMint {
		if tok, ok := r.Registry.FindByAddress(symbolOrMint); ok {
			return tok, nil
		}
	}
	if r.Searcher == nil {
		return types.Token{}, notFound(symbolOrMint)
	}

	results, err := r.Searcher.Search(ctx, symbolOrMint)
	if err != nil {
		return types.Token{}, err
	}
	match := func(t types.Token) bool {
		if isMint {
			return t.Address == symbolOrMint
		}
		return strings.EqualFold(t.Symbol, symbolOrMint)
	}
	candidates := lo.Filter(results, func(t types.Token, _ int) bool { return match(t) })
	if len(candidates) == 0 {
		return types.Token{}, notFound(symbolOrMint)
	}
	// prefer verified mints when a symbol is ambiguous
	tok, ok := lo.Find(candidates, func(t types.Token) bool { return t.Verified })
	if !ok {
		tok = candidates[0]
	}
	r.Registry.Add(tok)
	return tok, nil
}

func notFound(symbol string) error {
	return apperror.New(apperror.CodeNotFound,
		apperror.WithMessage(fmt.Sprintf("token '%s' not found", symbol)))
}
