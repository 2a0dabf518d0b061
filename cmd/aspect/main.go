// Command aspect generates proxy wrappers for //@Proxy interfaces and checks
// advisor definition files.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if err := newCLI(os.Stdout).Exec(); err != nil {
		logrus.WithError(err).Error("aspect")
		os.Exit(1)
	}
}
