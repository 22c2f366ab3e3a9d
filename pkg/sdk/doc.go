// Package threadress embeds the threadress fashion search pipeline in a Go
// program: catalog sync, single and multi-query search, inventory reads.
// It talks to Valkey or Redis with the search module directly, no API server
// in between.
//
//	client, _ := threadress.New(ctx, threadress.WithValkey("localhost:6379", ""))
//	defer client.Close()
//
//	report, _ := client.Sync(ctx, []threadress.Item{{
//	    ID:       "7",
//	    Title:    "Black Silk Slip Dress",
//	    ImageURL: "https://cdn.example.com/slip.jpg",
//	}})
//	res, _ := client.Search(ctx, threadress.Query{Text: "black silk dress for a party", K: 10})
//	for _, h := range res.Hits {
//	    fmt.Println(h.Item.Title, h.Store, h.Score)
//	}
//
// Without WithEmbedder the client embeds text with deterministic offline
// hashes and images with URL keywords. That is enough for tests and demos;
// plug in a real model for relevance.
package threadress
