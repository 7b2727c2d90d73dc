// Package batch schedules migration runs across many documents.
//
// The document count picks a parallelism strategy: small runs go fully
// parallel, larger runs proceed in fixed-size batches with pauses in
// between to stay under upstream rate limits. Batches are a barrier,
// not a sliding window: every document in a batch settles before the
// next batch starts. Individual failures are recorded per document and
// never abort the run; the resulting summary always accounts for every
// input id exactly once.
package batch
