// Package billing exposes the subscription engine over HTTP: tier
// checkout, provider webhook ingestion, entitlement snapshots, customer
// portal links, and account deletion. Mount it under /billing:
//
//	r.Mount("/billing", billingModule.Router())
package billing
