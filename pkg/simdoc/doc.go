// Package simdoc finds all pairs of similar documents in a batch.
//
// Documents are cut into n-grams, compressed into short binary sketches and compared
// through sketch sorting, so a batch of n documents is searched without n² comparisons.
// Two measures are supported:
//   - Jaccard similarity of n-gram sets, estimated with 1-bit minwise hashing
//   - Cosine similarity of tf-idf vectors, estimated with simhash
//
// Results are approximate in recall only: every reported pair has an estimated
// similarity at or above the threshold, and more rounds or a wider window find more.
//
//	s, err := simdoc.NewJaccardSearcher(
//	    simdoc.WithNgram(3),
//	    simdoc.WithThreshold(0.8),
//	    simdoc.WithBits(256),
//	)
//	if err != nil {
//	    return err
//	}
//	pairs, err := s.Search(ctx, docs)
//	for _, p := range pairs {
//	    fmt.Println(p.A, p.B, p.Similarity)
//	}
package simdoc
