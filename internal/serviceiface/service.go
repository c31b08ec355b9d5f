// Package serviceiface defines the contract every long-running service
// (logger, recon, cron, gateway) implements so the app manager can
// sequence them.
package serviceiface

type Service interface {
	Name() string
	Start() error
	Stop() error
}
