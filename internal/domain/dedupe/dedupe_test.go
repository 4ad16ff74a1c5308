package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/storyloom/internal/domain/dedupe"
)

func TestInMemoryIndex(t *testing.T) {
	Convey("Given a new in-memory index", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryIndex()

		Convey("When a key is new", func() {
			id, seen := d.Remember(ctx, "key-1", "job-1")

			Convey("Then the job is recorded", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "job-1")
				So(d.Size(), ShouldEqual, 1)

				got, ok := d.Lookup(ctx, "key-1")
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, "job-1")
			})
		})

		Convey("When a key is submitted twice", func() {
			d.Remember(ctx, "key-1", "job-1")
			id, seen := d.Remember(ctx, "key-1", "job-2")

			Convey("Then the first job is returned", func() {
				So(seen, ShouldBeTrue)
				So(id, ShouldEqual, "job-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the key is empty", func() {
			id, seen := d.Remember(ctx, "", "job-1")
			_, seenAgain := d.Remember(ctx, "", "job-2")

			Convey("Then nothing is recorded", func() {
				So(seen, ShouldBeFalse)
				So(seenAgain, ShouldBeFalse)
				So(id, ShouldEqual, "job-1")
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a key is forgotten", func() {
			d.Remember(ctx, "key-1", "job-1")
			d.Remember(ctx, "key-2", "job-2")
			d.Forget(ctx, "key-1")
			d.Forget(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 1)
				_, ok := d.Lookup(ctx, "key-1")
				So(ok, ShouldBeFalse)

				id, seen := d.Remember(ctx, "key-1", "job-3")
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "job-3")
			})
		})
	})
}

func TestIndexEviction(t *testing.T) {
	Convey("Given an index bounded to three keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.Remember(ctx, fmt.Sprintf("key-%d", i), fmt.Sprintf("job-%d", i))
		}

		Convey("When a fourth key arrives", func() {
			d.Remember(ctx, "key-4", "job-4")

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, ok := d.Lookup(ctx, "key-1")
				So(ok, ShouldBeFalse)
				for _, k := range []string{"key-2", "key-3", "key-4"} {
					_, ok := d.Lookup(ctx, k)
					So(ok, ShouldBeTrue)
				}
			})
		})

		Convey("When the middle key was forgotten first", func() {
			d.Forget(ctx, "key-2")
			d.Remember(ctx, "key-4", "job-4")
			d.Remember(ctx, "key-5", "job-5")

			Convey("Then eviction still removes the oldest", func() {
				So(d.Size(), ShouldEqual, 3)
				_, ok := d.Lookup(ctx, "key-1")
				So(ok, ShouldBeFalse)
				_, ok = d.Lookup(ctx, "key-3")
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded index", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(0))

		Convey("When many keys are recorded", func() {
			const n = 1000
			for i := range n {
				d.Remember(ctx, fmt.Sprintf("key-%d", i), "job")
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
				_, seen := d.Remember(ctx, "key-0", "other")
				So(seen, ShouldBeTrue)
			})
		})
	})
}

func TestIndexConcurrency(t *testing.T) {
	Convey("Given an index shared by many submitters", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(1000))

		Convey("When they race on the same key", func() {
			const workers = 20
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
				ids   = map[string]struct{}{}
			)
			for i := range workers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id, seen := d.Remember(ctx, "same", fmt.Sprintf("job-%d", i))
					mu.Lock()
					defer mu.Unlock()
					if !seen {
						fresh++
					}
					ids[id] = struct{}{}
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one job wins", func() {
				So(fresh, ShouldEqual, 1)
				So(ids, ShouldHaveLength, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
