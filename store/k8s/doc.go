// Package k8s implements lock.Store on the Kubernetes coordination/v1
// Lease API, so replicas running in a cluster can arbitrate scheduling
// without a database. It holds locks only; pair it with another backend
// for the run ledger.
//
// Each resource maps to one Lease named with a configurable prefix. The
// holder is Spec.HolderIdentity and the acquisition instant is
// Spec.RenewTime. Updates carry the resourceVersion read just before, so a
// concurrent writer surfaces as cronlock.ErrLockConflict instead of a lost
// update.
//
// Example:
//
//	cfg, _ := rest.InClusterConfig()
//	client := kubernetes.NewForConfigOrDie(cfg)
//	locks := k8s.New(client, "my-namespace")
package k8s
