package usecases

import (
	"context"
	"iter"

	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
)

// pipelinePages yields pipeline pages for a branch, newest first.
// A page is requested only when the consumer asks for it, so breaking out of
// the range loop guarantees no further requests. A fetch error is yielded once
// and ends the sequence. Each call to the returned sequence starts again from
// the first page.
func pipelinePages(
	ctx context.Context,
	client domain.PipelineClient,
	branch string,
) iter.Seq2[*domain.PipelinePage, error] {
	return func(yield func(*domain.PipelinePage, error) bool) {
		token := ""
		for {
			page, err := client.ListPipelines(ctx, branch, token)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.NextPageToken == "" {
				return
			}
			token = page.NextPageToken
		}
	}
}

// pipelines flattens pipelinePages into individual pipelines in page order.
func pipelines(
	ctx context.Context,
	client domain.PipelineClient,
	branch string,
) iter.Seq2[domain.Pipeline, error] {
	return func(yield func(domain.Pipeline, error) bool) {
		for page, err := range pipelinePages(ctx, client, branch) {
			if err != nil {
				yield(domain.Pipeline{}, err)
				return
			}
			for _, p := range page.Items {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}
