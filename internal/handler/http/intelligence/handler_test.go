package intelligence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"intelhub/internal/domain/entity"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/query"
)

type singleItemArchive struct {
	item entity.ArchivedItem
}

func (f *singleItemArchive) Insert(ctx context.Context, item entity.ArchivedItem) error { return nil }
func (f *singleItemArchive) Get(ctx context.Context, id uuid.UUID) (*entity.ArchivedItem, error) {
	if id == f.item.UUID {
		return &f.item, nil
	}
	return nil, entity.ErrNotFound
}
func (f *singleItemArchive) Find(ctx context.Context, filter repository.ArchiveFilter, page repository.Page) ([]entity.ArchivedItem, error) {
	return nil, nil
}
func (f *singleItemArchive) Count(ctx context.Context, filter repository.ArchiveFilter) (int64, error) {
	return 1, nil
}
func (f *singleItemArchive) Summary(ctx context.Context) (int64, uuid.UUID, error) {
	return 1, f.item.UUID, nil
}
func (f *singleItemArchive) Paginate(ctx context.Context, baseUUID uuid.UUID, offset, limit int) ([]entity.ArchivedItem, error) {
	return nil, nil
}
func (f *singleItemArchive) ScoreDistribution(ctx context.Context, filter repository.ArchiveFilter) ([]repository.ScoreBucket, error) {
	return nil, nil
}
func (f *singleItemArchive) HourlyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return nil, nil
}
func (f *singleItemArchive) DailyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return nil, nil
}
func (f *singleItemArchive) WeeklyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return nil, nil
}
func (f *singleItemArchive) MonthlyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return nil, nil
}
func (f *singleItemArchive) TopInformants(ctx context.Context, limit int) ([]repository.InformantStat, error) {
	return nil, nil
}

func TestIntelligenceHandler(t *testing.T) {
	item := entity.ArchivedItem{
		ProcessedItem: entity.ProcessedItem{
			UUID:       uuid.New(),
			EventTitle: "Big <Event>",
			EventBrief: "brief",
			EventText:  "body",
			Informant:  "unit",
			Location:   []string{"US"},
		},
	}
	h := Handler{Engine: query.New(&singleItemArchive{item: item}), Prefix: "/intelligence/"}

	t.Run("renders escaped HTML", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/intelligence/"+item.UUID.String(), nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Big &lt;Event&gt;")
		assert.Contains(t, rec.Body.String(), "US")
	})

	t.Run("unknown uuid is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/intelligence/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("garbage uuid is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/intelligence/garbage", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
