package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coordinationv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/lock"
)

var _ lock.Store = (*Store)(nil)

const (
	defaultLeasePrefix = "cronlock-"
	resourceAnnotation = "cronlock.xraph.com/resource"
	maxNameLength      = 253
)

// Store implements lock.Store with coordination/v1 Leases.
type Store struct {
	client      kubernetes.Interface
	namespace   string
	leasePrefix string
	logger      *slog.Logger
}

// New creates a Lease-backed lock store in namespace.
func New(client kubernetes.Interface, namespace string, opts ...Option) *Store {
	s := &Store{
		client:      client,
		namespace:   namespace,
		leasePrefix: defaultLeasePrefix,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LeaseName returns the Lease object name used for resource.
func (s *Store) LeaseName(resource string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s.leasePrefix + resource) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-.")
	if len(name) > maxNameLength {
		name = strings.TrimRight(name[:maxNameLength], "-.")
	}
	return name
}

// UpsertLock implements lock.Store.
func (s *Store) UpsertLock(ctx context.Context, cond lock.Condition, now time.Time) (lock.UpsertResult, error) {
	leases := s.client.CoordinationV1().Leases(s.namespace)
	name := s.LeaseName(cond.Resource)
	renew := metav1.NewMicroTime(now.UTC())
	holder := cond.OwnerID
	ttlSec := int32(now.Sub(cond.StaleBefore).Seconds())

	existing, err := leases.Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		lease := &coordinationv1.Lease{
			ObjectMeta: metav1.ObjectMeta{
				Name:        name,
				Namespace:   s.namespace,
				Annotations: map[string]string{resourceAnnotation: cond.Resource},
			},
			Spec: coordinationv1.LeaseSpec{
				HolderIdentity:       &holder,
				LeaseDurationSeconds: &ttlSec,
				AcquireTime:          &renew,
				RenewTime:            &renew,
			},
		}
		if _, createErr := leases.Create(ctx, lease, metav1.CreateOptions{}); createErr != nil {
			if apierrors.IsAlreadyExists(createErr) {
				return lock.UpsertResult{}, cronlock.ErrLockConflict
			}
			return lock.UpsertResult{}, fmt.Errorf("cronlock/k8s: create lease: %w", createErr)
		}
		return lock.UpsertResult{Inserted: true}, nil
	}
	if err != nil {
		return lock.UpsertResult{}, fmt.Errorf("cronlock/k8s: get lease: %w", err)
	}

	rec, err := s.record(existing, cond.Resource)
	if err != nil {
		return lock.UpsertResult{}, err
	}
	if !cond.Matches(rec) {
		return lock.UpsertResult{}, nil
	}

	if rec.OwnerID != cond.OwnerID {
		existing.Spec.AcquireTime = &renew
		if t := existing.Spec.LeaseTransitions; t != nil {
			n := *t + 1
			existing.Spec.LeaseTransitions = &n
		} else {
			n := int32(1)
			existing.Spec.LeaseTransitions = &n
		}
	}
	existing.Spec.HolderIdentity = &holder
	existing.Spec.LeaseDurationSeconds = &ttlSec
	existing.Spec.RenewTime = &renew

	if _, err = leases.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		if apierrors.IsConflict(err) {
			return lock.UpsertResult{}, cronlock.ErrLockConflict
		}
		return lock.UpsertResult{}, fmt.Errorf("cronlock/k8s: update lease: %w", err)
	}
	return lock.UpsertResult{Matched: true}, nil
}

// GetLock implements lock.Store. A Lease without a holder reads as missing.
func (s *Store) GetLock(ctx context.Context, resource string) (*lock.Record, error) {
	lease, err := s.client.CoordinationV1().Leases(s.namespace).Get(ctx, s.LeaseName(resource), metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, cronlock.ErrLockNotFound
		}
		return nil, fmt.Errorf("cronlock/k8s: get lease: %w", err)
	}
	rec, err := s.record(lease, resource)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID == "" {
		return nil, cronlock.ErrLockNotFound
	}
	return rec, nil
}

// DeleteLock implements lock.Store. The delete is preconditioned on the
// resourceVersion that showed ownerID as holder.
func (s *Store) DeleteLock(ctx context.Context, resource, ownerID string) (bool, error) {
	leases := s.client.CoordinationV1().Leases(s.namespace)
	name := s.LeaseName(resource)

	lease, err := leases.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("cronlock/k8s: get lease: %w", err)
	}
	if lease.Spec.HolderIdentity == nil || *lease.Spec.HolderIdentity != ownerID {
		return false, nil
	}

	opts := metav1.DeleteOptions{}
	if rv := lease.ResourceVersion; rv != "" {
		opts.Preconditions = &metav1.Preconditions{ResourceVersion: &rv}
	}
	if err := leases.Delete(ctx, name, opts); err != nil {
		if apierrors.IsNotFound(err) || apierrors.IsConflict(err) {
			return false, nil
		}
		return false, fmt.Errorf("cronlock/k8s: delete lease: %w", err)
	}
	return true, nil
}

// record converts a Lease to a lock record. Names are sanitised, so a
// Lease written for a different resource that maps to the same name is
// reported instead of silently shared.
func (s *Store) record(lease *coordinationv1.Lease, resource string) (*lock.Record, error) {
	if owner := lease.Annotations[resourceAnnotation]; owner != "" && owner != resource {
		return nil, fmt.Errorf("cronlock/k8s: lease %q belongs to resource %q, not %q", lease.Name, owner, resource)
	}

	rec := &lock.Record{Resource: resource}
	if lease.Spec.HolderIdentity != nil {
		rec.OwnerID = *lease.Spec.HolderIdentity
	}
	if lease.Spec.RenewTime != nil {
		rec.AcquiredAt = lease.Spec.RenewTime.UTC()
	}
	return rec, nil
}
