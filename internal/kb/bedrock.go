// Package kb talks to a Bedrock knowledge base: retrieval for the chat
// endpoint and ingestion jobs for the document endpoints.
package kb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
)

// RetrieveAPI is the subset of the Bedrock agent runtime client used here.
type RetrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// IngestionAPI is the subset of the Bedrock agent client used here.
type IngestionAPI interface {
	StartIngestionJob(ctx context.Context, params *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
}

type Retriever struct {
	api             RetrieveAPI
	knowledgeBaseID string
}

func NewRetriever(api RetrieveAPI, knowledgeBaseID string) *Retriever {
	return &Retriever{api: api, knowledgeBaseID: knowledgeBaseID}
}

// Retrieve runs a vector search against the knowledge base and returns the
// non-empty chunk texts in rank order.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	out, err := r.api.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(r.knowledgeBaseID),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(limit)),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve from knowledge base %s: %w", r.knowledgeBaseID, err)
	}

	contexts := make([]string, 0, len(out.RetrievalResults))
	for _, res := range out.RetrievalResults {
		if res.Content == nil {
			continue
		}
		if text := aws.ToString(res.Content.Text); text != "" {
			contexts = append(contexts, text)
		}
	}
	return contexts, nil
}

// IngestionTrigger starts re-indexing of one knowledge base data source.
type IngestionTrigger struct {
	api             IngestionAPI
	knowledgeBaseID string
	dataSourceID    string
}

func NewIngestionTrigger(api IngestionAPI, knowledgeBaseID, dataSourceID string) *IngestionTrigger {
	return &IngestionTrigger{api: api, knowledgeBaseID: knowledgeBaseID, dataSourceID: dataSourceID}
}

// StartIngestion launches an ingestion job and returns its id.
func (t *IngestionTrigger) StartIngestion(ctx context.Context) (string, error) {
	out, err := t.api.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(t.knowledgeBaseID),
		DataSourceId:    aws.String(t.dataSourceID),
	})
	if err != nil {
		return "", fmt.Errorf("start ingestion job: %w", err)
	}
	if out.IngestionJob == nil {
		return "", errors.New("start ingestion job: response has no job")
	}
	return aws.ToString(out.IngestionJob.IngestionJobId), nil
}
