package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

func seedMembers(t *testing.T, repo *memMemberRepo, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		m := member(string(rune('A'+i))+"1", string(rune('a'+i))+"@example.com")
		require.NoError(t, repo.Create(context.Background(), m))
		ids = append(ids, m.ID)
	}
	return ids
}

func TestStatsOnEmptyLedger(t *testing.T) {
	members := newMemMemberRepo()
	seedMembers(t, members, 3)
	s := NewStatsService(members, newMemContributionRepo(members), nil, discard)

	stats, err := s.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.MemberCount)
	assert.Equal(t, 0.0, stats.ContributionsTotal)
	assert.NotNil(t, stats.MonthlyStats)
	assert.Empty(t, stats.MonthlyStats)
}

func TestStatsThirteenPeriodsKeepsNewestTwelve(t *testing.T) {
	members := newMemMemberRepo()
	ids := seedMembers(t, members, 1)
	contributions := newMemContributionRepo(members)
	ctx := context.Background()

	// 2023-1 .. 2024-1, thirteen distinct periods
	for i := 0; i < 13; i++ {
		year, month := 2023, i+1
		if month > 12 {
			year, month = 2024, month-12
		}
		require.NoError(t, contributions.Create(ctx, &domain.Contribution{MemberID: ids[0], Month: month, Year: year, Amount: 10}))
	}
	require.NoError(t, contributions.Create(ctx, &domain.Contribution{MemberID: ids[0], Month: 1, Year: 2024, Amount: 5}))

	stats, err := NewStatsService(members, contributions, nil, discard).Compute(ctx)
	require.NoError(t, err)

	require.Len(t, stats.MonthlyStats, 12)
	assert.Equal(t, domain.MonthlyStat{Period: "2024-1", Count: 2, Total: 15}, stats.MonthlyStats[0])
	assert.Equal(t, "2023-12", stats.MonthlyStats[1].Period)
	assert.Equal(t, "2023-2", stats.MonthlyStats[11].Period, "2023-1 is the oldest and dropped")
	assert.Equal(t, 135.0, stats.ContributionsTotal)
}

func TestFormatPeriodIsNotPadded(t *testing.T) {
	assert.Equal(t, "2024-3", FormatPeriod(2024, 3))
	assert.Equal(t, "2024-11", FormatPeriod(2024, 11))
}

func TestMonthlyStatsOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seen := map[[2]int]bool{}
		var periods []domain.PeriodTotal
		for _, p := range rapid.SliceOf(rapid.Custom(func(t *rapid.T) domain.PeriodTotal {
			return domain.PeriodTotal{
				Year:  rapid.IntRange(2000, 2030).Draw(t, "year"),
				Month: rapid.IntRange(1, 12).Draw(t, "month"),
				Count: 1,
				Total: 1,
			}
		})).Draw(t, "periods") {
			k := [2]int{p.Year, p.Month}
			if !seen[k] {
				seen[k] = true
				periods = append(periods, p)
			}
		}

		out := monthlyStats(periods)

		want := len(periods)
		if want > MonthlyStatsLimit {
			want = MonthlyStatsLimit
		}
		if len(out) != want {
			t.Fatalf("got %d groups, want %d", len(out), want)
		}

		sorted := append([]domain.PeriodTotal(nil), periods...)
		sortPeriodsDesc(sorted)
		for i := range out {
			if out[i].Period != FormatPeriod(sorted[i].Year, sorted[i].Month) {
				t.Fatalf("position %d: got %s, want newest-first %d-%d", i, out[i].Period, sorted[i].Year, sorted[i].Month)
			}
			if i > 0 {
				prev, cur := sorted[i-1], sorted[i]
				if cur.Year > prev.Year || (cur.Year == prev.Year && cur.Month >= prev.Month) {
					t.Fatalf("groups out of order at %d", i)
				}
			}
		}
	})
}

func TestStatsCacheHitSkipsStorage(t *testing.T) {
	members := newMemMemberRepo()
	contributions := newMemContributionRepo(members)
	s := NewStatsService(members, contributions, NewMemoryStatsCache(time.Minute), discard)
	ctx := context.Background()

	_, err := s.Compute(ctx)
	require.NoError(t, err)
	_, err = s.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, contributions.calls)

	s.Invalidate(ctx)
	_, err = s.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, contributions.calls)
}

func TestWritesInvalidateCachedStats(t *testing.T) {
	members := newMemMemberRepo()
	contributions := newMemContributionRepo(members)
	stats := NewStatsService(members, contributions, NewMemoryStatsCache(time.Minute), discard)
	ms := NewMemberService(members, stats, discard)
	ctx := context.Background()

	before, err := stats.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), before.MemberCount)

	require.NoError(t, ms.Create(ctx, member("X1", "x@example.com")))

	after, err := stats.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.MemberCount)
}

func TestWriteDuringComputeIsNotMaskedByCache(t *testing.T) {
	members := newMemMemberRepo()
	contributions := newMemContributionRepo(members)
	stats := NewStatsService(members, contributions, NewMemoryStatsCache(time.Minute), discard)
	ms := NewMemberService(members, stats, discard)
	ctx := context.Background()

	counted := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	members.afterCount = func() {
		once.Do(func() {
			close(counted)
			<-release
		})
	}

	done := make(chan *domain.Stats)
	go func() {
		s, err := stats.Compute(ctx)
		assert.NoError(t, err)
		done <- s
	}()

	<-counted
	require.NoError(t, ms.Create(ctx, member("X1", "x@example.com")))
	close(release)

	inFlight := <-done
	require.NotNil(t, inFlight)
	assert.Equal(t, int64(0), inFlight.MemberCount, "the in-flight computation read the old size")

	after, err := stats.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.MemberCount)
}

func TestMemoryStatsCacheDropsStaleGeneration(t *testing.T) {
	c := NewMemoryStatsCache(time.Minute)
	ctx := context.Background()

	generation, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, &domain.Stats{MemberCount: 7}, generation))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBrokenCacheFallsBackToStorage(t *testing.T) {
	members := newMemMemberRepo()
	seedMembers(t, members, 2)
	s := NewStatsService(members, newMemContributionRepo(members), brokenCache{}, discard)

	stats, err := s.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.MemberCount)
	s.Invalidate(context.Background())
}

func TestStatsStorageFailure(t *testing.T) {
	members := newMemMemberRepo()
	members.fail = errCacheDown
	s := NewStatsService(members, newMemContributionRepo(members), nil, discard)

	_, err := s.Compute(context.Background())
	assert.Error(t, err)
}

func TestMemoryStatsCacheReturnsCopies(t *testing.T) {
	c := NewMemoryStatsCache(time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, &domain.Stats{MonthlyStats: []domain.MonthlyStat{{Period: "2024-1"}}}, 0))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	got.MonthlyStats[0].Period = "mutated"

	again, _, _ := c.Get(ctx)
	assert.Equal(t, "2024-1", again.MonthlyStats[0].Period)
}
