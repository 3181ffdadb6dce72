// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/siemens/ipsleuth/abuseipdb"
	"github.com/siemens/ipsleuth/iplist"
	"github.com/siemens/ipsleuth/test/fakeabuse"
	"github.com/siemens/ipsleuth/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// recorder is a Lookuper that records when it has been asked to look up
// which address, and that optionally blocks lookups until its gate opens.
type recorder struct {
	mu      sync.Mutex
	addrs   []string
	times   []time.Time
	entered chan string
	gate    chan struct{}
}

func newRecorder(blocking bool) *recorder {
	r := &recorder{entered: make(chan string, 100)}
	if blocking {
		r.gate = make(chan struct{})
	}
	return r
}

func (r *recorder) Lookup(ctx context.Context, addr string) (*types.Report, error) {
	r.mu.Lock()
	r.addrs = append(r.addrs, addr)
	r.times = append(r.times, time.Now())
	r.mu.Unlock()
	r.entered <- addr
	if r.gate != nil {
		<-r.gate
	}
	return &types.Report{IPAddress: addr}, nil
}

func (r *recorder) Addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.addrs...)
}

func (r *recorder) Times() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.times...)
}

func statuses(items []types.Item) []types.Status {
	s := make([]types.Status, len(items))
	for idx, item := range items {
		s[idx] = item.Status
	}
	return s
}

var _ = Describe("verifier", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(2 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	// newVerifier returns a new Verifier that gets stopped at the end of the
	// current test.
	newVerifier := func(lookup Lookuper, options ...VerifierOption) *Verifier {
		v := New(lookup, options...)
		DeferCleanup(v.StopWait)
		return v
	}

	It("handles multiple stops", func() {
		v := New(newRecorder(false))
		for i := 0; i < 2; i++ {
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				v.StopWait()
				close(done)
			}()
			Eventually(done).WithTimeout(1 * time.Second).Should(BeClosed())
		}
		Expect(v.Start([]string{"1.2.3.4"})).Error().To(MatchError(ErrStopped))
	})

	It("pauses 1.5s between lookups by default", func() {
		v := newVerifier(newRecorder(false))
		Expect(v.delay).To(Equal(1500 * time.Millisecond))
		Expect(func() { _ = WithDelay(-1) }).To(Panic())
	})

	It("rejects invalid input before any lookup", func() {
		rec := newRecorder(false)
		v := newVerifier(rec, WithDelay(0))

		_, err := v.Start(nil)
		Expect(err).To(MatchError(iplist.ErrNoAddresses))

		_, err = v.Start([]string{"1.2.3.4", "not-an-ip"})
		var verr *iplist.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Address).To(Equal("not-an-ip"))

		_, err = v.Start([]string{"1.2.3.4", "1.2.3.4"})
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Address).To(Equal("1.2.3.4"))

		Expect(v.Current()).To(BeNil())
		Consistently(rec.Addresses).WithTimeout(100 * time.Millisecond).Should(BeEmpty())
	})

	It("verifies addresses in order with pauses between lookups", func(ctx context.Context) {
		const delay = 150 * time.Millisecond
		rec := newRecorder(false)
		v := newVerifier(rec, WithDelay(delay))

		run := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}))
		Expect(run.Running()).To(BeTrue())
		Expect(v.Current()).To(BeIdenticalTo(run))
		Expect(run.Wait(ctx)).To(Succeed())
		Expect(run.Running()).To(BeFalse())

		Expect(rec.Addresses()).To(Equal([]string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}))
		times := rec.Times()
		Expect(times[1].Sub(times[0])).To(BeNumerically(">=", delay))
		Expect(times[2].Sub(times[1])).To(BeNumerically(">=", delay))
		Expect(run.FinishedAt().Sub(times[2])).To(BeNumerically("<", delay))

		Expect(statuses(run.Items())).To(HaveEach(types.Completed))
		stats := run.Stats()
		Expect(stats.Total).To(Equal(3))
		Expect(stats.Completed + stats.Errors).To(Equal(stats.Total))
		Expect(stats.Clean).To(Equal(3))
		Expect(run.Stats()).To(Equal(stats))
	})

	It("passes its base context to lookups", func(ctx context.Context) {
		type key struct{}
		basectx := context.WithValue(context.Background(), key{}, "foo")
		var got any
		v := newVerifier(LookupFunc(func(ctx context.Context, addr string) (*types.Report, error) {
			got = ctx.Value(key{})
			return &types.Report{}, nil
		}), WithContext(basectx), WithDelay(0))
		run := Successful(v.Start([]string{"1.2.3.4"}))
		Expect(run.Wait(ctx)).To(Succeed())
		Expect(got).To(Equal("foo"))
	})

	It("keeps going after failed lookups", func(ctx context.Context) {
		v := newVerifier(LookupFunc(func(ctx context.Context, addr string) (*types.Report, error) {
			if addr == "2.2.2.2" {
				return nil, &abuseipdb.LookupError{
					Kind:    abuseipdb.RateLimited,
					Status:  429,
					Message: "rate limit exceeded, please wait before making more requests",
				}
			}
			return &types.Report{TotalReports: 42}, nil
		}), WithDelay(0))
		run := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}))
		Expect(run.Wait(ctx)).To(Succeed())

		items := run.Items()
		Expect(statuses(items)).To(Equal([]types.Status{
			types.Completed, types.Errored, types.Completed}))
		Expect(items[1].Report).To(BeNil())
		Expect(items[1].Error).To(Equal("rate limit exceeded, please wait before making more requests"))
		Expect(items[1].Kind).To(Equal("rate-limited"))
		stats := run.Stats()
		Expect(stats.Errors).To(Equal(1))
		Expect(stats.Warning).To(Equal(2))
		Expect(stats.Completed + stats.Errors).To(Equal(stats.Total))
	})

	It("errors lookups returning neither report nor error", func(ctx context.Context) {
		v := newVerifier(LookupFunc(func(ctx context.Context, addr string) (*types.Report, error) {
			if addr == "2.2.2.2" {
				return nil, nil
			}
			return &types.Report{}, nil
		}), WithDelay(0))
		run := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}))
		Expect(run.Wait(ctx)).To(Succeed())

		items := run.Items()
		Expect(statuses(items)).To(Equal([]types.Status{
			types.Completed, types.Errored, types.Completed}))
		Expect(items[1].Report).To(BeNil())
		Expect(items[1].Error).To(Equal(ErrEmptyResult.Error()))
		Expect(items[1].Kind).To(Equal("unknown"))
		Expect(run.Stats().Errors).To(Equal(1))
	})

	It("counts runs as stopped only when items got stopped", func() {
		run := newRun(1, []string{"1.1.1.1", "2.2.2.2"})
		run.settle(0, &types.Report{}, nil)
		run.settle(1, &types.Report{}, nil)
		run.Cancel()
		Expect(run.CancelRequested()).To(BeTrue())
		Expect(run.result()).To(Equal("completed"))

		run = newRun(2, []string{"1.1.1.1", "2.2.2.2"})
		run.settle(0, &types.Report{}, nil)
		run.stopRemaining(1)
		Expect(run.result()).To(Equal("stopped"))
	})

	It("stops all items when cancelled right after start", func(ctx context.Context) {
		rec := newRecorder(true)
		v := newVerifier(rec, WithDelay(time.Hour))
		run := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4", "5.5.5.5"}))
		v.Cancel(run)
		Expect(run.CancelRequested()).To(BeTrue())
		close(rec.gate)
		Expect(run.Wait(ctx)).To(Succeed())

		Expect(statuses(run.Items())).To(HaveEach(types.Stopped))
		Expect(len(rec.Addresses())).To(BeNumerically("<=", 1))
		stats := run.Stats()
		Expect(stats.Stopped).To(Equal(5))
		Expect(stats.InProgress).To(BeZero())
		Expect(stats.Clean).To(BeZero())
	})

	It("discards the result of a lookup in flight when cancelled", func(ctx context.Context) {
		rec := newRecorder(true)
		v := newVerifier(rec, WithDelay(time.Hour))
		run := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2"}))
		Eventually(rec.entered).Should(Receive(Equal("1.1.1.1")))
		Expect(statuses(run.Items())).To(Equal([]types.Status{types.Checking, types.Pending}))
		Expect(run.Stats().InProgress).To(Equal(2))

		run.Cancel()
		Expect(run.Running()).To(BeTrue())
		close(rec.gate)
		Expect(run.Wait(ctx)).To(Succeed())

		items := run.Items()
		Expect(statuses(items)).To(Equal([]types.Status{types.Stopped, types.Stopped}))
		Expect(items[0].Report).To(BeNil())
		Expect(rec.Addresses()).To(Equal([]string{"1.1.1.1"}))
	})

	It("wakes up early from its pause when cancelled", func(ctx context.Context) {
		rec := newRecorder(false)
		v := newVerifier(rec, WithDelay(time.Hour))
		run := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2"}))
		Eventually(rec.entered).Should(Receive())
		Eventually(func() []types.Status { return statuses(run.Items()) }).
			Should(Equal([]types.Status{types.Completed, types.Pending}))
		run.Cancel()
		Eventually(run.Done()).Within(time.Second).Should(BeClosed())
		Expect(statuses(run.Items())).To(Equal([]types.Status{types.Completed, types.Stopped}))
	})

	It("ignores cancelling a finished run", func(ctx context.Context) {
		v := newVerifier(newRecorder(false), WithDelay(0))
		run := Successful(v.Start([]string{"1.1.1.1"}))
		Expect(run.Wait(ctx)).To(Succeed())
		run.Cancel()
		v.Cancel(nil)
		Expect(run.CancelRequested()).To(BeFalse())
		Expect(statuses(run.Items())).To(Equal([]types.Status{types.Completed}))
	})

	It("supersedes a previous run", func(ctx context.Context) {
		rec := newRecorder(true)
		v := newVerifier(rec, WithDelay(time.Hour))
		first := Successful(v.Start([]string{"1.1.1.1", "2.2.2.2"}))
		Eventually(rec.entered).Should(Receive(Equal("1.1.1.1")))

		second := Successful(v.Start([]string{"3.3.3.3"}))
		Expect(second.ID).To(Equal(first.ID + 1))
		Expect(v.Current()).To(BeIdenticalTo(second))
		Expect(first.CancelRequested()).To(BeTrue())
		Consistently(rec.entered).WithTimeout(100 * time.Millisecond).ShouldNot(Receive())
		Expect(statuses(second.Items())).To(Equal([]types.Status{types.Pending}))

		close(rec.gate)
		Expect(first.Wait(ctx)).To(Succeed())
		Expect(second.Wait(ctx)).To(Succeed())
		Expect(statuses(first.Items())).To(HaveEach(types.Stopped))
		Expect(statuses(second.Items())).To(Equal([]types.Status{types.Completed}))

		Expect(rec.Addresses()).To(Equal([]string{"1.1.1.1", "3.3.3.3"}))
		Expect(rec.Times()[1]).NotTo(BeTemporally("<", first.FinishedAt()))
	})

	It("hands out snapshots of items", func(ctx context.Context) {
		v := newVerifier(newRecorder(false), WithDelay(0))
		run := Successful(v.Start([]string{"1.1.1.1"}))
		Expect(run.Wait(ctx)).To(Succeed())
		items := run.Items()
		items[0].Status = types.Errored
		Expect(run.Items()[0].Status).To(Equal(types.Completed))
	})

	When("talking to the reputation service", func() {

		var fake *fakeabuse.Server
		var client *abuseipdb.Client

		BeforeEach(func() {
			fake = fakeabuse.New()
			hc := &http.Client{Transport: &http.Transport{}}
			client = abuseipdb.New(fakeabuse.APIKey,
				abuseipdb.WithBaseURL(fake.URL()),
				abuseipdb.WithHTTPClient(hc))
			DeferCleanup(func() {
				fake.Close()
				hc.CloseIdleConnections()
			})
		})

		It("classifies a malicious and a clean address", func(ctx context.Context) {
			fake.Reports("1.2.3.4", 150).Reports("8.8.8.8", 0)
			v := newVerifier(client, WithDelay(10*time.Millisecond))
			run := Successful(v.Start([]string{"1.2.3.4", "8.8.8.8"}))
			Expect(run.Wait(ctx)).To(Succeed())

			items := run.Items()
			Expect(items[0].Verdict()).To(Equal(types.Malicious))
			Expect(items[1].Verdict()).To(Equal(types.Clean))
			Expect(run.Stats()).To(Equal(types.Stats{
				Total:     2,
				Completed: 2,
				Malicious: 1,
				Clean:     1,
			}))
		})

		It("records lookup errors per item", func(ctx context.Context) {
			fake.Status("8.8.4.4", http.StatusTooManyRequests)
			v := newVerifier(client, WithDelay(0))
			run := Successful(v.Start([]string{"1.1.1.1", "8.8.4.4", "9.9.9.9"}))
			Expect(run.Wait(ctx)).To(Succeed())

			items := run.Items()
			Expect(statuses(items)).To(Equal([]types.Status{
				types.Completed, types.Errored, types.Completed}))
			Expect(items[1].Error).To(HavePrefix("rate limit exceeded"))
			Expect(items[1].Kind).To(Equal(abuseipdb.RateLimited.String()))
			Expect(fake.Addresses()).To(Equal([]string{"1.1.1.1", "8.8.4.4", "9.9.9.9"}))
		})

	})

})
