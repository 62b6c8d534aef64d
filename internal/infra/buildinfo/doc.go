// Package buildinfo exposes build-time version information.
//
// Values are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/habbo-go/internal/infra/buildinfo.Version=1.2.0 \
//	  -X github.com/yndnr/habbo-go/internal/infra/buildinfo.Commit=abc123"
//
// Version doubles as the client version announced in authentication
// requests when it is a release build.
package buildinfo
