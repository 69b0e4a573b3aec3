// Package version хранит сведения о сборке сервиса расчётов.
package version

import "fmt"

// Значения подставляются при сборке:
//
//	go build -ldflags "-X github.com/bazaarmkt/settlement/internal/version.version=v1.2.0 ..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// String форматирует сведения о сборке для стартового лога и /healthz.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
