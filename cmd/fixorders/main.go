// Command fixorders repairs an order document whose records are missing their
// exchange order id by re-extracting the id from the stored placement
// response.
package main

import (
	"flag"
	"fmt"
	"os"

	"ataix-trader/internal/exchange/ataix"
	"ataix-trader/internal/store"
)

func main() {
	var path string
	flag.StringVar(&path, "out", "orders.json", "order document path")
	flag.Parse()

	st := store.New(path)
	doc, ok, err := st.Load()
	if err != nil {
		fatal(err.Error())
	}
	if !ok {
		fatal(fmt.Sprintf("no order document at %s", path))
	}

	patched := 0
	for i := range doc.Orders {
		rec := &doc.Orders[i]
		if rec.OrderID != "" || len(rec.CreatedRawResponse) == 0 {
			continue
		}
		id := ataix.ExtractOrderID(rec.CreatedRawResponse)
		if id == "" {
			fmt.Fprintf(os.Stderr, "record %s: no order id in stored response\n", rec.ID)
			continue
		}
		rec.OrderID = id
		patched++
	}

	if patched > 0 {
		if err := st.Save(doc); err != nil {
			fatal(err.Error())
		}
	}
	fmt.Printf("patched %d of %d orders in %s\n", patched, len(doc.Orders), path)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
