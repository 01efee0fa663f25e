package listview

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Code   string
	Type   string
	Status string
	Name   string
}

var rowFields = Fields[row]{
	"code":   func(r row) string { return r.Code },
	"type":   func(r row) string { return r.Type },
	"status": func(r row) string { return r.Status },
	"name":   func(r row) string { return r.Name },
}

var rowSearch = []string{"code", "name"}

func rowKey(r row) string { return r.Code }

func sampleRows() []row {
	return []row{
		{Code: "A", Type: "regular", Status: "paid"},
		{Code: "B", Type: "vip", Status: "pending"},
	}
}

func randomRows(rng *rand.Rand, n int) []row {
	types := []string{"regular", "vip", "student"}
	statuses := []string{"paid", "pending", "failed"}
	names := []string{"Ada", "bob", "CARLA", "dmitri", "Abe"}

	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{
			Code:   string(rune('A'+i%26)) + strings.Repeat("x", i/26),
			Type:   types[rng.Intn(len(types))],
			Status: statuses[rng.Intn(len(statuses))],
			Name:   names[rng.Intn(len(names))],
		}
	}
	return rows
}

func randomQuery(rng *rand.Rand) Query {
	pick := func(options ...string) string { return options[rng.Intn(len(options))] }
	return Query{
		Filters: map[string]string{
			"type":   pick(All, "", "regular", "vip", "student"),
			"status": pick(All, "paid", "pending"),
		},
		Search: pick("", "a", "B", "ca", "zz", " ab "),
	}
}

func isOrderedSubset(t *testing.T, sub, all []row) {
	t.Helper()
	j := 0
	for _, s := range sub {
		for j < len(all) && all[j] != s {
			j++
		}
		require.Less(t, j, len(all), "element %v missing or out of order", s)
		j++
	}
}

func TestProject_Examples(t *testing.T) {
	rows := sampleRows()

	got := Project(rows, rowFields, Query{Filters: map[string]string{"type": "regular"}}, rowSearch)
	assert.Equal(t, []row{rows[0]}, got)

	got = Project(rows, rowFields, Query{Filters: map[string]string{"type": All}, Search: "b"}, rowSearch)
	assert.Equal(t, []row{rows[1]}, got)
}

func TestProject_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		rows := randomRows(rng, rng.Intn(40))
		q := randomQuery(rng)

		once := Project(rows, rowFields, q, rowSearch)
		twice := Project(once, rowFields, q, rowSearch)

		assert.LessOrEqual(t, len(once), len(rows))
		isOrderedSubset(t, once, rows)
		assert.Equal(t, once, twice)
		assert.Equal(t, once, Project(rows, rowFields, q, rowSearch))
	}
}

func TestProject_AllIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		rows := randomRows(rng, rng.Intn(30))
		got := Project(rows, rowFields, Query{Filters: map[string]string{"type": All, "status": All}}, rowSearch)
		assert.Equal(t, len(rows), len(got))
		for j := range rows {
			assert.Equal(t, rows[j], got[j])
		}
	}
}

func TestProject_SearchIsCaseInsensitive(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	rows := randomRows(rng, 60)

	upper := Project(rows, rowFields, Query{Search: "ABE"}, rowSearch)
	lower := Project(rows, rowFields, Query{Search: "abe"}, rowSearch)

	assert.Equal(t, upper, lower)
	assert.NotEmpty(t, lower)
}

func TestProject_OnlyEmptyTermMatchesAll(t *testing.T) {
	rows := []row{
		{Code: "A", Name: "Ama Mensah"},
		{Code: "B", Name: "Kojo"},
	}

	assert.Len(t, Project(rows, rowFields, Query{}, rowSearch), 2)

	got := Project(rows, rowFields, Query{Search: " "}, rowSearch)
	assert.Equal(t, []string{"A"}, codes(got))
}

func TestProject_UndeclaredFieldMatchesEmptyOnly(t *testing.T) {
	rows := sampleRows()

	assert.Empty(t, Project(rows, rowFields, Query{Filters: map[string]string{"venue": "arena"}}, rowSearch))
	assert.Len(t, Project(rows, rowFields, Query{Filters: map[string]string{"venue": ""}}, rowSearch), 2)
}

func TestProject_ReturnsFreshSlice(t *testing.T) {
	rows := sampleRows()
	got := Project(rows, rowFields, Query{}, rowSearch)
	got[0].Code = "Z"

	assert.Equal(t, "A", rows[0].Code)
}

func TestQuery_WithCopies(t *testing.T) {
	q := Query{Filters: map[string]string{"type": "vip"}}
	next := q.With("status", "paid")

	assert.False(t, q.Active("status"))
	assert.True(t, next.Active("status"))
	assert.True(t, next.Active("type"))
	assert.False(t, next.With("type", All).Active("type"))
}

func TestApplyCreate(t *testing.T) {
	rows := sampleRows()
	created := row{Code: "N", Type: "vip"}

	got := ApplyCreate(rows, created)

	require.Len(t, got, len(rows)+1)
	assert.Equal(t, created, got[0])
	assert.Equal(t, rows, got[1:])
	assert.Equal(t, "A", rows[0].Code)
}

func TestApplyUpdate(t *testing.T) {
	rows := sampleRows()

	t.Run("no match returns input unchanged", func(t *testing.T) {
		got, ok := ApplyUpdate(rows, rowKey, "missing", func(r row) row {
			r.Status = "changed"
			return r
		})
		assert.False(t, ok)
		assert.Equal(t, sampleRows(), got)
		assert.Same(t, &rows[0], &got[0])
	})

	t.Run("replaces only the match", func(t *testing.T) {
		got, ok := ApplyUpdate(rows, rowKey, "B", func(r row) row {
			r.Status = "paid"
			return r
		})
		require.True(t, ok)
		assert.Equal(t, rows[0], got[0])
		assert.Equal(t, "paid", got[1].Status)
		assert.Equal(t, "pending", rows[1].Status)
	})
}

func TestDistinct(t *testing.T) {
	rows := append(sampleRows(), row{Code: "C", Type: "regular"}, row{Code: "D"})
	assert.Equal(t, []string{"regular", "vip"}, Distinct(rows, rowFields, "type"))
}

func newTestController(load Loader[row]) *Controller[row, string] {
	return NewController(Config[row, string]{
		Resource: "rows",
		Key:      rowKey,
		Fields:   rowFields,
		Search:   rowSearch,
		Load:     load,
	})
}

func TestController_RefreshAndView(t *testing.T) {
	c := newTestController(func(ctx context.Context) ([]row, error) {
		return sampleRows(), nil
	})

	assert.False(t, c.Loaded())
	require.NoError(t, c.EnsureLoaded(context.Background()))
	assert.True(t, c.Loaded())
	assert.False(t, c.LoadedAt().IsZero())

	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.View(Query{Filters: map[string]string{"status": "paid"}}), 1)
	assert.Equal(t, map[string]int{"paid": 1, "pending": 1}, c.Count("status"))
	assert.Equal(t, []string{"regular", "vip"}, c.Options("type"))

	got, ok := c.Get("B")
	require.True(t, ok)
	assert.Equal(t, "vip", got.Type)
	_, ok = c.Get("nope")
	assert.False(t, ok)
}

func TestController_FailedRefreshKeepsSnapshot(t *testing.T) {
	fail := false
	c := newTestController(func(ctx context.Context) ([]row, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return sampleRows(), nil
	})

	require.NoError(t, c.Refresh(context.Background()))
	fail = true

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load rows")
	assert.Equal(t, err, c.Err())
	assert.Equal(t, 2, c.Len())

	fail = false
	require.NoError(t, c.Refresh(context.Background()))
	assert.NoError(t, c.Err())
}

func TestController_PrependAndPatch(t *testing.T) {
	c := newTestController(func(ctx context.Context) ([]row, error) {
		return sampleRows(), nil
	})
	require.NoError(t, c.Refresh(context.Background()))

	c.Prepend(row{Code: "N"})
	assert.Equal(t, "N", c.Items()[0].Code)

	assert.True(t, c.Patch("B", func(r row) row {
		r.Status = "paid"
		return r
	}))
	assert.False(t, c.Patch("missing", func(r row) row { return r }))

	got, _ := c.Get("B")
	assert.Equal(t, "paid", got.Status)
	assert.Equal(t, []string{"N", "A", "B"}, codes(c.Items()))
}

func TestController_RefreshKeepsMutationsMadeDuringRead(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	c := newTestController(func(ctx context.Context) ([]row, error) {
		calls++
		if calls != 2 {
			return sampleRows(), nil
		}
		close(started)
		<-release
		// Read taken before the mutations below were confirmed.
		return sampleRows(), nil
	})
	require.NoError(t, c.Refresh(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	require.True(t, c.Patch("B", func(r row) row {
		r.Status = "confirmed"
		return r
	}))
	c.Prepend(row{Code: "N", Status: "active"})

	close(release)
	require.NoError(t, <-done)

	got, ok := c.Get("B")
	require.True(t, ok)
	assert.Equal(t, "confirmed", got.Status)
	assert.Equal(t, []string{"N", "A", "B"}, codes(c.Items()))

	// With no refresh in flight the next read is taken as is.
	require.NoError(t, c.Refresh(context.Background()))
	got, _ = c.Get("B")
	assert.Equal(t, "pending", got.Status)
}

func TestController_PrependReplayDoesNotDuplicate(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := newTestController(func(ctx context.Context) ([]row, error) {
		close(started)
		<-release
		return append([]row{{Code: "N"}}, sampleRows()...), nil
	})

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started
	c.Prepend(row{Code: "N"})
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"N", "A", "B"}, codes(c.Items()))
}

func TestController_ConcurrentAccess(t *testing.T) {
	c := newTestController(func(ctx context.Context) ([]row, error) {
		return randomRows(rand.New(rand.NewSource(1)), 20), nil
	})
	require.NoError(t, c.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.View(Query{Search: "a"})
		}()
		go func(i int) {
			defer wg.Done()
			c.Patch("A", func(r row) row {
				r.Name = strings.Repeat("n", i)
				return r
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, c.Len())
}

func codes(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Code
	}
	return out
}
