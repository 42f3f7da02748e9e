package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

// storeContract exercises the behavior every backend must share.
func storeContract(t *testing.T, open func(opts ...repository.Option) repository.Store) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		clock := newClock()
		s := open(repository.WithClock(clock.Now))
		Reset(func() { _ = s.Close() })

		Convey("When creating records", func() {
			a, err := s.Create(ctx, model.Jobs, json.RawMessage(`{"title":"Backend","id":99,"created_at":"x"}`))
			So(err, ShouldBeNil)
			b, err := s.Create(ctx, model.Jobs, json.RawMessage(`{"title":"Frontend"}`))
			So(err, ShouldBeNil)
			other, err := s.Create(ctx, model.Candidates, json.RawMessage(`{"name":"Ada"}`))
			So(err, ShouldBeNil)

			Convey("Then ids are sequential per collection and reserved keys are owned by the store", func() {
				So(decode(t, a)["id"], ShouldEqual, 1.0)
				So(decode(t, b)["id"], ShouldEqual, 2.0)
				So(decode(t, other)["id"], ShouldEqual, 1.0)
				So(decode(t, a)["created_at"], ShouldEqual, "2024-05-01T12:00:01Z")
			})

			Convey("Then fetching returns the stored document", func() {
				got, err := s.Get(ctx, model.Jobs, 1)
				So(err, ShouldBeNil)
				So(cmp.Diff(decode(t, a), decode(t, got)), ShouldBeEmpty)
			})

			Convey("Then All is ordered by id and Count matches", func() {
				all, err := s.All(ctx, model.Jobs)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 2)
				So(decode(t, all[0])["title"], ShouldEqual, "Backend")
				n, err := s.Count(ctx, model.Jobs)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})

			Convey("When a record is deleted", func() {
				So(s.Delete(ctx, model.Jobs, 2), ShouldBeNil)
				c, err := s.Create(ctx, model.Jobs, json.RawMessage(`{"title":"Data"}`))
				So(err, ShouldBeNil)

				Convey("Then its id is not reused", func() {
					So(decode(t, c)["id"], ShouldEqual, 3.0)
					_, err := s.Get(ctx, model.Jobs, 2)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})

				Convey("Then deleting it again reports not found", func() {
					So(errors.Is(s.Delete(ctx, model.Jobs, 2), repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When patching a record", func() {
				got, err := s.Update(ctx, model.Jobs, 1, json.RawMessage(`{"status":"closed","id":5,"created_at":"later"}`))
				So(err, ShouldBeNil)
				m := decode(t, got)

				Convey("Then keys merge and identity is immutable", func() {
					So(m["title"], ShouldEqual, "Backend")
					So(m["status"], ShouldEqual, "closed")
					So(m["id"], ShouldEqual, 1.0)
					So(m["created_at"], ShouldEqual, decode(t, a)["created_at"])
					So(m["updated_at"], ShouldNotEqual, decode(t, a)["updated_at"])
				})
			})

			Convey("When replacing a record", func() {
				got, err := s.Replace(ctx, model.Jobs, 1, json.RawMessage(`{"title":"Platform"}`))
				So(err, ShouldBeNil)
				m := decode(t, got)

				Convey("Then old keys are gone but identity stays", func() {
					So(m["title"], ShouldEqual, "Platform")
					So(m, ShouldContainKey, "id")
					So(m["id"], ShouldEqual, 1.0)
					So(m["created_at"], ShouldEqual, decode(t, a)["created_at"])
				})
			})
		})

		Convey("When the target is missing", func() {
			_, err := s.Update(ctx, model.Jobs, 42, json.RawMessage(`{}`))
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Replace(ctx, model.Jobs, 42, json.RawMessage(`{}`))
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the document is not an object", func() {
			_, err := s.Create(ctx, model.Jobs, json.RawMessage(`[1,2]`))
			So(errors.Is(err, repository.ErrInvalidDocument), ShouldBeTrue)

			Convey("Then no id is consumed", func() {
				got, err := s.Create(ctx, model.Jobs, json.RawMessage(`{}`))
				So(err, ShouldBeNil)
				So(decode(t, got)["id"], ShouldEqual, 1.0)
			})
		})

		Convey("When the collection is unknown", func() {
			_, err := s.All(ctx, model.Collection("talents"))
			So(errors.Is(err, repository.ErrUnknownCollection), ShouldBeTrue)
		})

		Convey("When creating concurrently", func() {
			var wg sync.WaitGroup
			for range 50 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = s.Create(ctx, model.Applications, json.RawMessage(`{"stage":"applied"}`))
				}()
			}
			wg.Wait()

			Convey("Then every id is distinct", func() {
				all, err := s.All(ctx, model.Applications)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 50)
				seen := map[float64]bool{}
				for _, d := range all {
					seen[decode(t, d)["id"].(float64)] = true
				}
				So(len(seen), ShouldEqual, 50)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(opts ...repository.Option) repository.Store {
		return repository.NewMemoryStore(opts...)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(opts ...repository.Option) repository.Store {
		s, err := repository.OpenSQLite(context.Background(), ":memory:", opts...)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return s
	})
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store file", t, func() {
		path := filepath.Join(t.TempDir(), "data", "talentflow.db")
		s, err := repository.OpenSQLite(ctx, path)
		So(err, ShouldBeNil)
		_, err = s.Create(ctx, model.Jobs, json.RawMessage(`{"title":"Backend"}`))
		So(err, ShouldBeNil)
		So(s.Delete(ctx, model.Jobs, 1), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When reopening it", func() {
			s2, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer s2.Close()
			got, err := s2.Create(ctx, model.Jobs, json.RawMessage(`{"title":"Frontend"}`))
			So(err, ShouldBeNil)

			Convey("Then the allocator resumes past deleted ids", func() {
				So(decode(t, got)["id"], ShouldEqual, 2.0)
				So(s2.Path(), ShouldEqual, path)
			})
		})
	})
}
