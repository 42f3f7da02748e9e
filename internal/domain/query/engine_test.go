package query_test

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func docs(raw ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(raw))
	for i, r := range raw {
		out[i] = json.RawMessage(r)
	}
	return out
}

func ids(ds []json.RawMessage) []int64 {
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = gjson.GetBytes(d, "id").Int()
	}
	return out
}

func seededJobs(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range n {
		out[i] = json.RawMessage(fmt.Sprintf(
			`{"id":%d,"title":"Job %02d","department":"%s","status":"active","tags":["go","t%d"],"order":%d,"created_at":"2024-01-%02dT00:00:00Z"}`,
			i+1, i+1, []string{"Engineering", "Sales"}[i%2], i%3, i+1, i+1))
	}
	return out
}

func TestRunPagination(t *testing.T) {
	e := query.New()

	Convey("Given 25 seeded jobs", t, func() {
		jobs := seededJobs(25)

		Convey("When listing page 3 with limit 10", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Page: 3, Limit: 10})

			Convey("Then the last five records are returned", func() {
				So(len(res.Docs), ShouldEqual, 5)
				So(res.Pagination.Total, ShouldEqual, 25)
				So(res.Pagination.TotalPages, ShouldEqual, 3)
				So(res.Pagination.HasMore, ShouldBeFalse)
				So(ids(res.Docs), ShouldResemble, []int64{21, 22, 23, 24, 25})
			})
		})

		Convey("When concatenating every page", func() {
			p := query.Params{Limit: 7, SortBy: "title", SortOrder: "desc"}
			full := e.Sorted(jobs, query.For(model.Jobs), p)
			var walked []int64
			for page := 1; ; page++ {
				p.Page = page
				res := e.Run(jobs, query.For(model.Jobs), p)
				walked = append(walked, ids(res.Docs)...)
				if !res.Pagination.HasMore {
					So(page, ShouldEqual, res.Pagination.TotalPages)
					break
				}
			}

			Convey("Then the pages reproduce the full sequence", func() {
				So(cmp.Diff(ids(full), walked), ShouldBeEmpty)
			})
		})

		Convey("When the limit is out of range", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Page: 0, Limit: 1000})

			Convey("Then page and limit are clamped", func() {
				So(res.Pagination.Page, ShouldEqual, 1)
				So(res.Pagination.Limit, ShouldEqual, query.MaxLimit)
				So(len(res.Docs), ShouldEqual, 25)
			})
		})

		Convey("When the page is far past the end", func() {
			for _, page := range []int{4, 1e18, math.MaxInt64} {
				res := e.Run(jobs, query.For(model.Jobs), query.Params{Page: page, Limit: 10})

				So(res.Docs, ShouldNotBeNil)
				So(len(res.Docs), ShouldEqual, 0)
				So(res.Pagination.Page, ShouldEqual, page)
				So(res.Pagination.Total, ShouldEqual, 25)
				So(res.Pagination.TotalPages, ShouldEqual, 3)
				So(res.Pagination.HasMore, ShouldBeFalse)
			}
		})

		Convey("When the limit is missing", func() {
			res := query.New(query.WithDefaultLimit(4)).Run(jobs, query.For(model.Jobs), query.Params{})
			So(res.Pagination.Limit, ShouldEqual, 4)
			So(res.Pagination.TotalPages, ShouldEqual, 7)
		})
	})

	Convey("Given no records", t, func() {
		res := e.Run(nil, query.For(model.Candidates), query.Params{})
		So(res.Docs, ShouldNotBeNil)
		So(len(res.Docs), ShouldEqual, 0)
		So(res.Pagination.TotalPages, ShouldEqual, 0)
	})
}

func TestRunSearchAndFilter(t *testing.T) {
	e := query.New()
	jobs := seededJobs(10)

	Convey("Given seeded jobs", t, func() {
		Convey("When searching case-insensitively", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Search: "JOB 0"})
			So(res.Pagination.Total, ShouldEqual, 9)
		})

		Convey("When searching inside a tags array", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Search: "t2"})
			So(res.Pagination.Total, ShouldEqual, 3)
		})

		Convey("When filtering by department", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Filters: map[string]string{"department": "Sales"}})
			So(res.Pagination.Total, ShouldEqual, 5)
		})

		Convey("When a filter value is all", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Filters: map[string]string{"status": "all"}})
			So(res.Pagination.Total, ShouldEqual, 10)
		})

		Convey("When filtering on an array field", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Filters: map[string]string{"tags": "t0"}})
			So(res.Pagination.Total, ShouldEqual, 4)
		})

		Convey("When filtering on a key the collection does not list", func() {
			res := e.Run(jobs, query.For(model.Jobs), query.Params{Filters: map[string]string{"title": "nothing"}})
			So(res.Pagination.Total, ShouldEqual, 10)
		})
	})

	Convey("Given applications with numeric foreign keys", t, func() {
		apps := docs(
			`{"id":1,"job_id":3,"candidate_id":9,"stage":"applied"}`,
			`{"id":2,"job_id":4,"candidate_id":9,"stage":"screen"}`,
			`{"id":3,"job_id":3,"candidate_id":7,"stage":"screen"}`,
		)

		Convey("When filtering by job_id and stage", func() {
			res := e.Run(apps, query.For(model.Applications), query.Params{
				Filters: map[string]string{"job_id": "3", "stage": "screen"},
			})
			So(ids(res.Docs), ShouldResemble, []int64{3})
		})

		Convey("When searching every field", func() {
			res := e.Run(apps, query.For(model.Applications), query.Params{Search: "applied"})
			So(ids(res.Docs), ShouldResemble, []int64{1})
		})
	})

	Convey("Given applications with a nested stage history", t, func() {
		apps := docs(
			`{"id":1,"stage":"screen","stage_history":[{"stage":"applied","date":"2024-01-01T00:00:00Z","notes":"referral"}]}`,
			`{"id":2,"stage":"tech","stage_history":[{"stage":"applied","date":"2024-02-01T00:00:00Z","notes":""}]}`,
		)

		Convey("When the query only matches an object key", func() {
			res := e.Run(apps, query.For(model.Applications), query.Params{Search: "date"})

			Convey("Then nothing matches", func() {
				So(res.Pagination.Total, ShouldEqual, 0)
			})
		})

		Convey("When the query matches a nested value", func() {
			res := e.Run(apps, query.For(model.Applications), query.Params{Search: "REFERRAL"})

			Convey("Then only that record matches", func() {
				So(ids(res.Docs), ShouldResemble, []int64{1})
			})
		})
	})
}

func TestRunSort(t *testing.T) {
	e := query.New()

	Convey("Given records with duplicate sort keys", t, func() {
		in := docs(
			`{"id":1,"name":"b","created_at":"2024-01-01T00:00:00Z"}`,
			`{"id":2,"name":"a","created_at":"2024-01-02T00:00:00Z"}`,
			`{"id":3,"name":"B","created_at":"2024-01-03T00:00:00Z"}`,
			`{"id":4,"name":"a","created_at":"2024-01-04T00:00:00Z"}`,
		)

		Convey("When sorting ascending by name", func() {
			out := e.Sorted(in, query.For(model.Candidates), query.Params{SortBy: "name"})
			Convey("Then equal keys keep their input order", func() {
				So(ids(out), ShouldResemble, []int64{2, 4, 1, 3})
			})
		})

		Convey("When sorting descending by name", func() {
			out := e.Sorted(in, query.For(model.Candidates), query.Params{SortBy: "name", SortOrder: "DESC"})
			So(ids(out), ShouldResemble, []int64{1, 3, 2, 4})
		})
	})

	Convey("Given records missing the sort field", t, func() {
		in := docs(
			`{"id":1,"score":null}`,
			`{"id":2,"score":40}`,
			`{"id":3}`,
			`{"id":4,"score":90}`,
		)

		Convey("Then missing values come last ascending", func() {
			out := e.Sorted(in, query.For(model.AssessmentResponses), query.Params{SortBy: "score"})
			So(ids(out), ShouldResemble, []int64{2, 4, 1, 3})
		})

		Convey("Then missing values come last descending", func() {
			out := e.Sorted(in, query.For(model.AssessmentResponses), query.Params{SortBy: "score", SortOrder: "desc"})
			So(ids(out), ShouldResemble, []int64{4, 2, 1, 3})
		})
	})

	Convey("Given date fields inferred from the name", t, func() {
		in := docs(
			`{"id":1,"applied_at":"2024-03-01T00:00:00Z"}`,
			`{"id":2,"applied_at":"not a date"}`,
			`{"id":3,"applied_at":"2024-01-01T00:00:00.5Z"}`,
		)
		out := e.Sorted(in, query.For(model.Applications), query.Params{SortBy: "applied_at", SortOrder: "desc"})
		So(ids(out), ShouldResemble, []int64{1, 3, 2})
	})

	Convey("Given numbers without a hint", t, func() {
		in := docs(`{"id":1,"n":10}`, `{"id":2,"n":9}`, `{"id":3,"n":100}`)
		out := e.Sorted(in, query.Descriptor{}, query.Params{SortBy: "n"})
		So(ids(out), ShouldResemble, []int64{2, 1, 3})
	})

	Convey("Given no sort field", t, func() {
		Convey("When every record has an order", func() {
			in := docs(`{"id":1,"order":3}`, `{"id":2,"order":1}`, `{"id":3,"order":2}`)
			out := e.Sorted(in, query.For(model.Jobs), query.Params{})
			So(ids(out), ShouldResemble, []int64{2, 3, 1})
		})

		Convey("When some record lacks an order", func() {
			in := docs(
				`{"id":1,"order":1,"created_at":"2024-01-01T00:00:00Z"}`,
				`{"id":2,"created_at":"2024-01-03T00:00:00Z"}`,
				`{"id":3,"order":2,"created_at":"2024-01-02T00:00:00Z"}`,
			)
			out := e.Sorted(in, query.For(model.Jobs), query.Params{})
			So(ids(out), ShouldResemble, []int64{2, 3, 1})
		})

		Convey("When the sort field is not a plain key", func() {
			in := docs(`{"id":1,"order":2}`, `{"id":2,"order":1}`)
			out := e.Sorted(in, query.For(model.Jobs), query.Params{SortBy: "a.b|c"})
			So(ids(out), ShouldResemble, []int64{2, 1})
		})
	})

	Convey("Given an input slice", t, func() {
		in := docs(`{"id":2,"order":2}`, `{"id":1,"order":1}`)
		_ = e.Run(in, query.For(model.Jobs), query.Params{})
		So(ids(in), ShouldResemble, []int64{2, 1})
	})
}
