// Package remote implements a segmentation provider backed by an HTTP
// service.
//
// Each processed frame is uploaded as PNG to {endpoint}/v1/segment and the
// service answers with a PNG whose RGB channels are the color output and
// whose alpha channel is the mask. Availability is probed with a GET on
// {endpoint}{health_path}. Per-frame calls go through a circuit breaker so
// an unreachable service costs one fast failure per frame instead of a
// timeout.
package remote
