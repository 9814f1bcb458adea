// Command respath-vet runs the respath analyzer as a standalone vet tool:
//
//	respath-vet ./...
//	go vet -vettool=$(which respath-vet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/podhmo/respath/internal/vet"
)

func main() { singlechecker.Main(vet.Analyzer) }
