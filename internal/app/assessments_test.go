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
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/resolver"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

const frontendAssessment = `{
	"job_id": 1,
	"title": "Frontend Technical Assessment",
	"questions": [
		{"id":"q1","type":"single-choice","title":"Pick one","options":["a","b"],"correct_answer":"b"},
		{"id":"q2","type":"multi-choice","title":"Pick many","options":["x","y","z"],"correct_answer":["x","z"]},
		{"id":"q3","type":"long-text","title":"Explain"}
	]
}`

func TestAssessments_Duplicate(t *testing.T) {
	Convey("Given the frontend assessment", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()
		orig, err := svc.CreateAssessment(ctx, json.RawMessage(frontendAssessment), "")
		So(err, ShouldBeNil)

		Convey("When it is duplicated", func() {
			dup, err := svc.DuplicateAssessment(ctx, fmt.Sprint(gjson.GetBytes(orig, "id").Int()))
			So(err, ShouldBeNil)

			Convey("Then the copy has a new id, a suffixed title and the same questions", func() {
				So(gjson.GetBytes(dup, "id").Int(), ShouldNotEqual, gjson.GetBytes(orig, "id").Int())
				So(gjson.GetBytes(dup, "title").String(), ShouldEqual, "Frontend Technical Assessment (Copy)")

				var a, b any
				So(json.Unmarshal([]byte(gjson.GetBytes(orig, "questions").Raw), &a), ShouldBeNil)
				So(json.Unmarshal([]byte(gjson.GetBytes(dup, "questions").Raw), &b), ShouldBeNil)
				So(cmp.Diff(a, b), ShouldBeEmpty)
			})
		})

		Convey("Duplicating a missing assessment is not found", func() {
			_, err := svc.DuplicateAssessment(ctx, "42")
			So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestAssessments_ForJob(t *testing.T) {
	Convey("Given a job without an assessment", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()

		Convey("The first upsert creates and the second updates", func() {
			first, created, err := svc.UpsertAssessmentForJob(ctx, 5, json.RawMessage(`{"title":"Draft"}`))
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(gjson.GetBytes(first, "job_id").Int(), ShouldEqual, int64(5))

			second, created, err := svc.UpsertAssessmentForJob(ctx, 5, json.RawMessage(`{"title":"Final"}`))
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(gjson.GetBytes(second, "id").Int(), ShouldEqual, gjson.GetBytes(first, "id").Int())
			So(gjson.GetBytes(second, "title").String(), ShouldEqual, "Final")

			Convey("And listing by job returns just that one", func() {
				_, err := svc.CreateAssessment(ctx, json.RawMessage(`{"job_id":6,"title":"Other"}`), "")
				So(err, ShouldBeNil)
				res, err := svc.AssessmentsForJob(ctx, 5, query.Params{})
				So(err, ShouldBeNil)
				So(res.Pagination.Total, ShouldEqual, 1)

				all, err := svc.ListAssessments(ctx, query.Params{})
				So(err, ShouldBeNil)
				So(all.Pagination.Total, ShouldEqual, 2)
			})
		})

		Convey("Patch and delete work by id", func() {
			doc, err := svc.CreateAssessment(ctx, json.RawMessage(`{"title":"Temp"}`), "")
			So(err, ShouldBeNil)
			id := fmt.Sprint(gjson.GetBytes(doc, "id").Int())

			out, err := svc.PatchAssessment(ctx, id, json.RawMessage(`{"description":"updated"}`))
			So(err, ShouldBeNil)
			So(gjson.GetBytes(out, "description").String(), ShouldEqual, "updated")

			So(svc.DeleteAssessment(ctx, id), ShouldBeNil)
			_, err = svc.GetAssessment(ctx, id)
			So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
		})

		Convey("Replace swaps the whole assessment by id", func() {
			doc, err := svc.CreateAssessment(ctx, json.RawMessage(`{"title":"Temp","description":"old"}`), "")
			So(err, ShouldBeNil)
			id := fmt.Sprint(gjson.GetBytes(doc, "id").Int())

			out, err := svc.ReplaceAssessment(ctx, id, json.RawMessage(`{"title":"Fresh","questions":[]}`))
			So(err, ShouldBeNil)
			So(gjson.GetBytes(out, "title").String(), ShouldEqual, "Fresh")
			So(gjson.GetBytes(out, "description").Exists(), ShouldBeFalse)

			_, err = svc.ReplaceAssessment(ctx, id, json.RawMessage(`{"title":5}`))
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestAssessments_Submit(t *testing.T) {
	Convey("Given a job with an answer-keyed assessment", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()
		_, err := svc.CreateAssessment(ctx, json.RawMessage(frontendAssessment), "")
		So(err, ShouldBeNil)

		Convey("When a candidate answers one of two gradable questions correctly", func() {
			doc, err := svc.SubmitAssessment(ctx, 1, json.RawMessage(`{
				"candidate_id": 3,
				"responses": {"q1":"b","q2":["z"],"q3":"because"}
			}`), "")
			So(err, ShouldBeNil)

			Convey("Then the response is stored with a score of 50", func() {
				So(gjson.GetBytes(doc, "score").Float(), ShouldEqual, 50.0)
				So(gjson.GetBytes(doc, "assessment_id").Int(), ShouldEqual, int64(1))
				So(gjson.GetBytes(doc, "job_id").Int(), ShouldEqual, int64(1))
				So(gjson.GetBytes(doc, "completed_at").Exists(), ShouldBeTrue)

				got, err := svc.GetResponse(ctx, fmt.Sprint(gjson.GetBytes(doc, "id").Int()))
				So(err, ShouldBeNil)
				So(gjson.GetBytes(got, "responses.q3").String(), ShouldEqual, "because")
			})

			Convey("Then it appears in the filtered response list", func() {
				res, err := svc.ListResponses(ctx, query.Params{Filters: map[string]string{"candidate_id": "3"}})
				So(err, ShouldBeNil)
				So(res.Pagination.Total, ShouldEqual, 1)
			})
		})

		Convey("Duplicate submissions are stored separately", func() {
			body := json.RawMessage(`{"candidate_id":3,"responses":{"q1":"b"}}`)
			_, err := svc.SubmitAssessment(ctx, 1, body, "")
			So(err, ShouldBeNil)
			_, err = svc.SubmitAssessment(ctx, 1, body, "")
			So(err, ShouldBeNil)
			res, err := svc.ListResponses(ctx, query.Params{})
			So(err, ShouldBeNil)
			So(res.Pagination.Total, ShouldEqual, 2)
		})

		Convey("Naming another job's assessment is rejected", func() {
			other, err := svc.CreateAssessment(ctx, json.RawMessage(`{"job_id":2,"title":"Backend"}`), "")
			So(err, ShouldBeNil)
			body := fmt.Sprintf(`{"assessment_id":%d,"candidate_id":3}`, gjson.GetBytes(other, "id").Int())

			_, err = svc.SubmitAssessment(ctx, 1, json.RawMessage(body), "")
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)

			res, err := svc.ListResponses(ctx, query.Params{})
			So(err, ShouldBeNil)
			So(res.Pagination.Total, ShouldEqual, 0)

			_, err = svc.SubmitAssessment(ctx, 2, json.RawMessage(body), "")
			So(err, ShouldBeNil)
		})

		Convey("Naming a missing assessment is not found", func() {
			_, err := svc.SubmitAssessment(ctx, 1, json.RawMessage(`{"assessment_id":77,"candidate_id":3}`), "")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("A response can be deleted", func() {
			doc, err := svc.SubmitAssessment(ctx, 1, json.RawMessage(`{"candidate_id":4}`), "")
			So(err, ShouldBeNil)
			id := fmt.Sprint(gjson.GetBytes(doc, "id").Int())
			So(svc.DeleteResponse(ctx, id), ShouldBeNil)
			_, err = svc.GetResponse(ctx, id)
			So(errors.Is(err, resolver.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a job without an assessment", t, func() {
		svc, _ := newStarted(t)

		Convey("The submitted score is kept within range", func() {
			doc, err := svc.SubmitAssessment(context.Background(), 9, json.RawMessage(`{"candidate_id":1,"score":130}`), "")
			So(err, ShouldBeNil)
			So(gjson.GetBytes(doc, "score").Float(), ShouldEqual, 100.0)
			So(gjson.GetBytes(doc, "assessment_id").Exists(), ShouldBeFalse)
		})
	})
}

func TestDashboard(t *testing.T) {
	Convey("Given a small data set", t, func() {
		svc, _ := newStarted(t)
		ctx := context.Background()
		createJobs(ctx, svc, 3)
		_, err := svc.PatchJob(ctx, "2", json.RawMessage(`{"status":"closed"}`))
		So(err, ShouldBeNil)
		_, err = svc.CreateCandidate(ctx, json.RawMessage(`{"name":"Ada","stage":"interview"}`), "")
		So(err, ShouldBeNil)
		_, err = svc.CreateAssessment(ctx, json.RawMessage(frontendAssessment), "")
		So(err, ShouldBeNil)
		_, err = svc.SubmitAssessment(ctx, 1, json.RawMessage(`{"candidate_id":1,"responses":{"q1":"b","q2":["x","z"]}}`), "")
		So(err, ShouldBeNil)

		Convey("The summary counts every collection", func() {
			stats, err := svc.Dashboard(ctx)
			So(err, ShouldBeNil)
			So(stats.TotalJobs, ShouldEqual, 3)
			So(stats.ActiveJobs, ShouldEqual, 2)
			So(stats.JobsByStatus["closed"], ShouldEqual, 1)
			So(stats.TotalCandidates, ShouldEqual, 1)
			So(stats.CandidatesByStage["test"], ShouldEqual, 1)
			So(stats.TotalAssessments, ShouldEqual, 1)
			So(stats.TotalResponses, ShouldEqual, 1)
			So(stats.AverageScore, ShouldEqual, 100.0)
		})
	})
}
