package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachevis/cache"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		router http.Handler
	)

	BeforeEach(func() {
		model, err := cache.New(cache.ModeFullyAssociative, cache.Geometry{
			NumLines:  8,
			BlockSize: 16,
			Assoc:     2,
		})
		Expect(err).ToNot(HaveOccurred())

		m = NewMonitor(model)
		router = m.routes()
	})

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should report the cache state", func() {
		w := serve(http.MethodGet, "/api/state", "")

		Expect(w.Code).To(Equal(http.StatusOK))

		snapshot := cache.Snapshot{}
		Expect(json.Unmarshal(w.Body.Bytes(), &snapshot)).To(Succeed())
		Expect(snapshot.Mode).To(Equal(cache.ModeFullyAssociative))
		Expect(snapshot.Lines).To(HaveLen(8))
	})

	It("should resolve accesses and report the outcome", func() {
		w := serve(http.MethodPost, "/api/access",
			`{"command": "LOAD R1, 0x10"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		rsp := accessRsp{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Result.Outcome).To(Equal(cache.OutcomeMiss))
		Expect(rsp.Result.LineIndex).To(Equal(0))

		w = serve(http.MethodPost, "/api/access",
			`{"command": "LOAD R1, 0x10"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		rsp = accessRsp{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Result.Outcome).To(Equal(cache.OutcomeHit))
		Expect(rsp.State.Stats.Hits).To(Equal(uint64(1)))
	})

	It("should reject a malformed command", func() {
		w := serve(http.MethodPost, "/api/access",
			`{"command": "FETCH R1, 0x10"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should reconfigure the cache and clear its lines", func() {
		serve(http.MethodPost, "/api/access", `{"command": "LOAD R1, 0x10"}`)

		w := serve(http.MethodPost, "/api/configure",
			`{"mode": "direct", "cache_size": 8, "block_size": 16}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		snapshot := cache.Snapshot{}
		Expect(json.Unmarshal(w.Body.Bytes(), &snapshot)).To(Succeed())
		Expect(snapshot.Mode).To(Equal(cache.ModeDirect))
		for _, line := range snapshot.Lines {
			Expect(line.IsValid).To(BeFalse())
		}
	})

	It("should reject an inconsistent configuration", func() {
		w := serve(http.MethodPost, "/api/configure",
			`{"mode": "set-associative", "cache_size": 8, `+
				`"block_size": 16, "assoc": 3}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should reset state without changing the mode", func() {
		serve(http.MethodPost, "/api/access", `{"command": "LOAD R1, 0x10"}`)

		w := serve(http.MethodPost, "/api/reset", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		snapshot := cache.Snapshot{}
		Expect(json.Unmarshal(w.Body.Bytes(), &snapshot)).To(Succeed())
		Expect(snapshot.Mode).To(Equal(cache.ModeFullyAssociative))
		Expect(snapshot.Stats.Accesses).To(Equal(uint64(0)))
		for _, line := range snapshot.Lines {
			Expect(line.IsValid).To(BeFalse())
		}
	})

	It("should serve the dashboard", func() {
		w := serve(http.MethodGet, "/", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})
})
