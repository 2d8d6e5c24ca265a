package k8s

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	coordinationv1 "k8s.io/api/coordination/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/lock"
	"github.com/xraph/cronlock/store/storetest"
)

const testNS = "default"

func newTestStore(t *testing.T, opts ...Option) (*Store, *fake.Clientset) {
	t.Helper()
	cs := fake.NewClientset()
	return New(cs, testNS, opts...), cs
}

func TestConformance(t *testing.T) {
	storetest.RunLock(t, func(t *testing.T) lock.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestLeaseName(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		resource string
		want     string
	}{
		{"cron", "cronlock-cron"},
		{"Billing_Jobs", "cronlock-billing-jobs"},
		{"reports/daily", "cronlock-reports-daily"},
		{"trailing..", "cronlock-trailing"},
	}
	for _, tt := range tests {
		if got := s.LeaseName(tt.resource); got != tt.want {
			t.Errorf("LeaseName(%q) = %q, want %q", tt.resource, got, tt.want)
		}
	}

	long := s.LeaseName(strings.Repeat("x", 400))
	if len(long) > maxNameLength {
		t.Errorf("LeaseName length = %d, want <= %d", len(long), maxNameLength)
	}
}

func TestUpsertLock_WritesLeaseSpec(t *testing.T) {
	s, cs := newTestStore(t, WithLeasePrefix("jobs-"))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: now.Add(-30 * time.Second)}, now)
	if err != nil {
		t.Fatalf("UpsertLock: %v", err)
	}
	if !res.Inserted {
		t.Fatalf("result = %+v, want inserted", res)
	}

	lease, err := cs.CoordinationV1().Leases(testNS).Get(ctx, "jobs-cron", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("get lease: %v", err)
	}
	if got := *lease.Spec.HolderIdentity; got != "a" {
		t.Errorf("holder = %q, want a", got)
	}
	if got := *lease.Spec.LeaseDurationSeconds; got != 30 {
		t.Errorf("lease duration = %d, want 30", got)
	}
	if !lease.Spec.RenewTime.Time.Equal(now) {
		t.Errorf("renew time = %v, want %v", lease.Spec.RenewTime.Time, now)
	}
	if got := lease.Annotations[resourceAnnotation]; got != "cron" {
		t.Errorf("resource annotation = %q, want cron", got)
	}
}

func TestUpsertLock_TakeoverCountsTransition(t *testing.T) {
	s, cs := newTestStore(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Microsecond)
	t1 := t0.Add(time.Minute)

	if _, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: t0.Add(-30 * time.Second)}, t0); err != nil {
		t.Fatalf("UpsertLock(a): %v", err)
	}
	res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "b", StaleBefore: t1.Add(-30 * time.Second)}, t1)
	if err != nil {
		t.Fatalf("UpsertLock(b): %v", err)
	}
	if !res.Matched {
		t.Fatalf("result = %+v, want matched", res)
	}

	lease, err := cs.CoordinationV1().Leases(testNS).Get(ctx, s.LeaseName("cron"), metav1.GetOptions{})
	if err != nil {
		t.Fatalf("get lease: %v", err)
	}
	if lease.Spec.LeaseTransitions == nil || *lease.Spec.LeaseTransitions != 1 {
		t.Errorf("lease transitions = %v, want 1", lease.Spec.LeaseTransitions)
	}
	if !lease.Spec.AcquireTime.Time.Equal(t1) {
		t.Errorf("acquire time = %v, want %v", lease.Spec.AcquireTime.Time, t1)
	}
}

func TestGetLock_EmptyHolderIsMissing(t *testing.T) {
	s, cs := newTestStore(t)
	ctx := context.Background()

	empty := &coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{Name: s.LeaseName("cron"), Namespace: testNS},
	}
	if _, err := cs.CoordinationV1().Leases(testNS).Create(ctx, empty, metav1.CreateOptions{}); err != nil {
		t.Fatalf("create lease: %v", err)
	}

	if _, err := s.GetLock(ctx, "cron"); !errors.Is(err, cronlock.ErrLockNotFound) {
		t.Fatalf("err = %v, want ErrLockNotFound", err)
	}

	// A holderless Lease is free to take.
	now := time.Now().UTC()
	res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: now.Add(-30 * time.Second)}, now)
	if err != nil {
		t.Fatalf("UpsertLock: %v", err)
	}
	if !res.Matched {
		t.Fatalf("result = %+v, want matched", res)
	}
}

func TestGetLock_NameCollision(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.UpsertLock(ctx, lock.Condition{Resource: "a_b", OwnerID: "x", StaleBefore: now.Add(-time.Minute)}, now); err != nil {
		t.Fatalf("UpsertLock: %v", err)
	}
	if _, err := s.GetLock(ctx, "a/b"); err == nil || errors.Is(err, cronlock.ErrLockNotFound) {
		t.Fatalf("err = %v, want collision error", err)
	}
}
