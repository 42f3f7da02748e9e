package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/talentflow/internal/adapters/repository"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/domain/fault"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/resolver"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func createJobs(ctx context.Context, svc *service.Service, n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		doc, err := svc.CreateJob(ctx, json.RawMessage(fmt.Sprintf(`{"title":"Job %d","status":"active"}`, i+1)), "")
		So(err, ShouldBeNil)
		ids[i] = gjson.GetBytes(doc, "id").Int()
	}
	return ids
}

func orders(ctx context.Context, store *repository.MemoryStore) map[int64]int64 {
	jobs, err := store.All(ctx, model.Jobs)
	So(err, ShouldBeNil)
	out := make(map[int64]int64, len(jobs))
	for _, j := range jobs {
		out[gjson.GetBytes(j, "id").Int()] = gjson.GetBytes(j, "order").Int()
	}
	return out
}

func TestJobs_CreateAndGet(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()

		Convey("When a job is created", func() {
			doc, err := svc.CreateJob(ctx, json.RawMessage(`{"title":"Senior Go Engineer","department":"Engineering","tags":["go"]}`), "")
			So(err, ShouldBeNil)
			id := gjson.GetBytes(doc, "id").Int()

			Convey("Then it gets a slug, an order and timestamps", func() {
				So(gjson.GetBytes(doc, "slug").String(), ShouldEqual, fmt.Sprintf("senior-go-engineer-%d", id))
				So(gjson.GetBytes(doc, "order").Int(), ShouldEqual, int64(1))
				So(gjson.GetBytes(doc, "created_at").Exists(), ShouldBeTrue)
			})

			Convey("Then it can be fetched by id and by slug with identical content", func() {
				byID, err := svc.GetJob(ctx, fmt.Sprint(id))
				So(err, ShouldBeNil)
				bySlug, err := svc.GetJob(ctx, gjson.GetBytes(doc, "slug").String())
				So(err, ShouldBeNil)

				var a, b map[string]any
				So(json.Unmarshal(byID, &a), ShouldBeNil)
				So(json.Unmarshal(bySlug, &b), ShouldBeNil)
				So(cmp.Diff(a, b), ShouldBeEmpty)
				So(a["title"], ShouldEqual, "Senior Go Engineer")
				So(a["department"], ShouldEqual, "Engineering")
			})

			Convey("Then the next job is ordered after it", func() {
				next, err := svc.CreateJob(ctx, json.RawMessage(`{"title":"Second"}`), "")
				So(err, ShouldBeNil)
				So(gjson.GetBytes(next, "order").Int(), ShouldEqual, int64(2))
			})
		})

		Convey("A body with a mistyped field is rejected", func() {
			_, err := svc.CreateJob(ctx, json.RawMessage(`{"title":42}`), "")
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			_, err = svc.CreateJob(ctx, json.RawMessage(`[1,2]`), "")
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("A missing job is not found", func() {
			_, err := svc.GetJob(ctx, "999")
			So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
			_, err = svc.GetJob(ctx, "no-such-slug")
			So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestJobs_Update(t *testing.T) {
	Convey("Given an existing job", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()
		doc, err := svc.CreateJob(ctx, json.RawMessage(`{"title":"Designer","status":"draft","location":"Berlin"}`), "")
		So(err, ShouldBeNil)
		slug := gjson.GetBytes(doc, "slug").String()

		Convey("Patch merges fields and keeps the rest", func() {
			out, err := svc.PatchJob(ctx, slug, json.RawMessage(`{"status":"active"}`))
			So(err, ShouldBeNil)
			So(gjson.GetBytes(out, "status").String(), ShouldEqual, "active")
			So(gjson.GetBytes(out, "location").String(), ShouldEqual, "Berlin")
		})

		Convey("Replace drops omitted fields but keeps the slug", func() {
			out, err := svc.ReplaceJob(ctx, slug, json.RawMessage(`{"title":"Lead Designer","status":"paused"}`))
			So(err, ShouldBeNil)
			So(gjson.GetBytes(out, "location").Exists(), ShouldBeFalse)
			So(gjson.GetBytes(out, "slug").String(), ShouldEqual, slug)
			So(gjson.GetBytes(out, "id").Int(), ShouldEqual, gjson.GetBytes(doc, "id").Int())
		})

		Convey("Delete removes it", func() {
			So(svc.DeleteJob(ctx, slug), ShouldBeNil)
			_, err := svc.GetJob(ctx, slug)
			So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
			So(errors.Is(svc.DeleteJob(ctx, slug), resolver.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestJobs_Pagination(t *testing.T) {
	Convey("Given 25 jobs", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()
		createJobs(ctx, svc, 25)

		Convey("When listing page 3 with limit 10", func() {
			res, err := svc.ListJobs(ctx, query.Params{Page: 3, Limit: 10})
			So(err, ShouldBeNil)

			Convey("Then the last five jobs are returned", func() {
				So(len(res.Docs), ShouldEqual, 5)
				So(res.Pagination.Total, ShouldEqual, 25)
				So(res.Pagination.TotalPages, ShouldEqual, 3)
				So(res.Pagination.HasMore, ShouldBeFalse)
				So(gjson.GetBytes(res.Docs[0], "order").Int(), ShouldEqual, int64(21))
			})
		})

		Convey("Filters and search narrow the list", func() {
			_, err := svc.PatchJob(ctx, "3", json.RawMessage(`{"status":"archived"}`))
			So(err, ShouldBeNil)

			res, err := svc.ListJobs(ctx, query.Params{Filters: map[string]string{"status": "archived"}})
			So(err, ShouldBeNil)
			So(res.Pagination.Total, ShouldEqual, 1)

			res, err = svc.ListJobs(ctx, query.Params{Search: "job 2", Limit: 100})
			So(err, ShouldBeNil)
			So(res.Pagination.Total, ShouldEqual, 7) // 2, 20-25
		})
	})
}

func TestJobs_Reorder(t *testing.T) {
	Convey("Given five ordered jobs", t, func() {
		svc, store := newStarted(t)
		ctx := context.Background()
		ids := createJobs(ctx, svc, 5)

		Convey("Moving a job down shifts the ones it passes up", func() {
			res, err := svc.ReorderJob(ctx, fmt.Sprint(ids[1]), 2, 4)
			So(err, ShouldBeNil)
			So(res, ShouldResemble, model.ReorderResult{Success: true, FromOrder: 2, ToOrder: 4})

			got := orders(ctx, store)
			So(got[ids[0]], ShouldEqual, int64(1))
			So(got[ids[2]], ShouldEqual, int64(2))
			So(got[ids[3]], ShouldEqual, int64(3))
			So(got[ids[1]], ShouldEqual, int64(4))
			So(got[ids[4]], ShouldEqual, int64(5))
		})

		Convey("Moving a job up shifts the ones it passes down", func() {
			res, err := svc.ReorderJob(ctx, fmt.Sprint(ids[4]), 0, 1)
			So(err, ShouldBeNil)
			So(res.FromOrder, ShouldEqual, 5)

			got := orders(ctx, store)
			So(got[ids[4]], ShouldEqual, int64(1))
			So(got[ids[0]], ShouldEqual, int64(2))
			So(got[ids[3]], ShouldEqual, int64(5))
		})

		Convey("The default list order follows the new ranking", func() {
			_, err := svc.ReorderJob(ctx, fmt.Sprint(ids[2]), 3, 1)
			So(err, ShouldBeNil)
			res, err := svc.ListJobs(ctx, query.Params{})
			So(err, ShouldBeNil)
			So(gjson.GetBytes(res.Docs[0], "id").Int(), ShouldEqual, ids[2])
		})

		Convey("A target below 1 is rejected", func() {
			_, err := svc.ReorderJob(ctx, fmt.Sprint(ids[0]), 1, 0)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestJobs_ReorderFailureRate(t *testing.T) {
	Convey("Given the random policy without latency", t, func() {
		policy := fault.NewRandomPolicy(
			fault.WithLatencyRange(0, 0),
			fault.WithFailureRate(0),
			fault.WithSeed(2024),
		)
		svc, _ := newStarted(t, service.WithFaultPolicy(policy))
		ctx := context.Background()
		ids := createJobs(ctx, svc, 2)

		Convey("When reordering 1000 times", func() {
			failures := 0
			for i := 0; i < 1000; i++ {
				_, err := svc.ReorderJob(ctx, fmt.Sprint(ids[i%2]), 0, 1)
				if errors.Is(err, fault.ErrSimulated) {
					failures++
				} else {
					So(err, ShouldBeNil)
				}
			}

			Convey("Then roughly one in ten fails", func() {
				So(failures, ShouldBeBetweenOrEqual, 60, 140)
			})
		})
	})
}

func TestJobs_Pipeline(t *testing.T) {
	Convey("Given a job with applications in several stages", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()
		ids := createJobs(ctx, svc, 2)
		for _, body := range []string{
			`{"job_id":%d,"candidate_id":1}`,
			`{"job_id":%d,"candidate_id":2,"stage":"screening"}`,
			`{"job_id":%d,"candidate_id":3,"stage":"offer"}`,
		} {
			_, err := svc.CreateApplication(ctx, json.RawMessage(fmt.Sprintf(body, ids[0])), "")
			So(err, ShouldBeNil)
		}
		_, err := svc.CreateApplication(ctx, json.RawMessage(fmt.Sprintf(`{"job_id":%d,"candidate_id":4}`, ids[1])), "")
		So(err, ShouldBeNil)

		Convey("The pipeline counts only that job, by canonical stage", func() {
			p, err := svc.JobPipeline(ctx, fmt.Sprint(ids[0]))
			So(err, ShouldBeNil)
			So(p.Total, ShouldEqual, 3)
			So(p.ByStage["applied"], ShouldEqual, 1)
			So(p.ByStage["screen"], ShouldEqual, 1)
			So(p.ByStage["offer"], ShouldEqual, 1)
			So(p.ByStage["hired"], ShouldEqual, 0)
		})
	})
}
