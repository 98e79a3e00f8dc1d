// main.go
//
// Entry point that delegates CLI handling to the Cobra root command in cmd/root.go

package main

import (
	"github.com/nanophotonic-structures/nanophotonic-structures/cmd"
	_ "github.com/nanophotonic-structures/nanophotonic-structures/sim/engine"
	_ "github.com/nanophotonic-structures/nanophotonic-structures/sim/store/minio"
	_ "github.com/nanophotonic-structures/nanophotonic-structures/sim/store/s3"
)

func main() {
	cmd.Execute()
}
