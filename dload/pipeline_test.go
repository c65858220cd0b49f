package dload_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/wswaq/img2dataset/dload"
)

var _ = Describe("RunShard", func() {
	var srv *httptest.Server

	BeforeEach(func() {
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
	})

	AfterEach(func() {
		srv.Close()
	})

	rowsFor := func(n int) []*dload.Row {
		rows := make([]*dload.Row, n)
		for i := range rows {
			rows[i] = &dload.Row{RowIndex: i, URL: dload.RowURL{Single: srv.URL}}
		}
		return rows
	}

	It("processes every row exactly once, regardless of delivery order", func() {
		cfg := &dload.Config{ThreadCount: 3, Timeout: 2 * time.Second, Retries: 0}
		rows := rowsFor(25)

		var processed int64
		seen := make(map[int]bool)
		err := dload.RunShard(context.Background(), cfg, rows, func(raw dload.RawRowResult) {
			atomic.AddInt64(&processed, 1)
			seen[raw.Row.RowIndex] = true
		})

		Expect(err).To(BeNil())
		Expect(processed).To(Equal(int64(25)))
		Expect(seen).To(HaveLen(25))
	})

	It("never loses a semaphore permit when the consumer panics", func() {
		cfg := &dload.Config{ThreadCount: 2, Timeout: 2 * time.Second, Retries: 0}
		rows := rowsFor(10)

		var processed int64
		err := dload.RunShard(context.Background(), cfg, rows, func(raw dload.RawRowResult) {
			atomic.AddInt64(&processed, 1)
			if raw.Row.RowIndex%3 == 0 {
				panic("simulated per-row processor failure")
			}
		})

		Expect(err).To(BeNil())
		Expect(processed).To(Equal(int64(10)))
	})

	It("honors a pre-cancelled context without deadlocking", func() {
		cfg := &dload.Config{ThreadCount: 2, Timeout: 2 * time.Second, Retries: 0}
		rows := rowsFor(5)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		go func() {
			done <- dload.RunShard(ctx, cfg, rows, func(dload.RawRowResult) {})
		}()

		Eventually(done, 2*time.Second).Should(Receive())
	})
})
