package assignment

import (
	"fmt"
	"testing"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestSelectPrefersGeoMatch(t *testing.T) {
	repo := &fakeCampaignRepo{
		byGeo: map[string][]*domain.FixedCampaign{"DE": testPool("DE")},
		top:   testPool(domain.GeoAll),
	}
	selector := NewCampaignPoolSelector(repo)

	pool, err := selector.Select("DE")
	require.NoError(t, err)
	require.Len(t, pool, PoolSize)
	for _, c := range pool {
		require.Equal(t, "DE", c.GeoTargeting)
	}
}

func TestSelectFallsBackToTopPool(t *testing.T) {
	repo := &fakeCampaignRepo{
		byGeo: map[string][]*domain.FixedCampaign{
			// Only one campaign serves this geo, not enough for a set.
			"BR": testPool("BR")[:1],
		},
		top: testPool(domain.GeoAll),
	}
	selector := NewCampaignPoolSelector(repo)

	pool, err := selector.Select("BR")
	require.NoError(t, err)
	require.Len(t, pool, PoolSize)
	for _, c := range pool {
		require.Equal(t, domain.GeoAll, c.GeoTargeting)
	}
}

func TestSelectEmptyGeoUsesWildcard(t *testing.T) {
	repo := &fakeCampaignRepo{
		byGeo: map[string][]*domain.FixedCampaign{domain.GeoAll: testPool(domain.GeoAll)},
	}
	selector := NewCampaignPoolSelector(repo)

	pool, err := selector.Select("")
	require.NoError(t, err)
	require.Len(t, pool, PoolSize)
}

func TestSelectNeverReturnsPartialPool(t *testing.T) {
	// However the pool table is broken, the selector yields exactly three
	// campaigns or a configuration error.
	for size := 0; size < PoolSize; size++ {
		repo := &fakeCampaignRepo{
			byGeo: map[string][]*domain.FixedCampaign{},
			top:   testPool(domain.GeoAll)[:size],
		}
		selector := NewCampaignPoolSelector(repo)

		_, err := selector.Select("US")
		require.ErrorIs(t, err, domain.ErrCampaignPoolMisconfigured, "pool size %d", size)
		require.False(t, domain.IsRetryable(err))
	}
}

func TestSelectPropagatesQueryError(t *testing.T) {
	repo := &fakeCampaignRepo{err: fmt.Errorf("connection refused")}
	selector := NewCampaignPoolSelector(repo)

	_, err := selector.Select("US")
	require.Error(t, err)
	require.True(t, domain.IsRetryable(err))
}
