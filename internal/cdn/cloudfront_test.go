package cdn

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
)

type fakeCloudFront struct {
	inputs []*cloudfront.CreateInvalidationInput
	err    error
}

func (f *fakeCloudFront) CreateInvalidation(_ context.Context, params *cloudfront.CreateInvalidationInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudfront.CreateInvalidationOutput{
		Invalidation: &types.Invalidation{Id: aws.String("I2J0EXAMPLE")},
	}, nil
}

var sitePaths = []string{"/index.html", "/archive.html", "/assets/js/main.js", "/assets/css/main.css"}

func TestInvalidateSendsPathsAndQuantity(t *testing.T) {
	client := &fakeCloudFront{}
	inv, err := NewInvalidator("E123EXAMPLE", client, nil)
	if err != nil {
		t.Fatalf("NewInvalidator: %v", err)
	}

	id, err := inv.Invalidate(context.Background(), sitePaths)
	if err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if id != "I2J0EXAMPLE" {
		t.Fatalf("unexpected id %q", id)
	}

	in := client.inputs[0]
	if aws.ToString(in.DistributionId) != "E123EXAMPLE" {
		t.Fatalf("DistributionId = %s", aws.ToString(in.DistributionId))
	}
	paths := in.InvalidationBatch.Paths
	if aws.ToInt32(paths.Quantity) != 4 || len(paths.Items) != 4 {
		t.Fatalf("unexpected paths %#v", paths)
	}
	for i, p := range sitePaths {
		if paths.Items[i] != p {
			t.Fatalf("path[%d] = %s, want %s", i, paths.Items[i], p)
		}
	}
}

func TestInvalidateUsesUniqueCallerReference(t *testing.T) {
	client := &fakeCloudFront{}
	inv, _ := NewInvalidator("E123EXAMPLE", client, nil)

	for i := 0; i < 2; i++ {
		if _, err := inv.Invalidate(context.Background(), sitePaths); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
	}
	first := aws.ToString(client.inputs[0].InvalidationBatch.CallerReference)
	second := aws.ToString(client.inputs[1].InvalidationBatch.CallerReference)
	if first == "" || first == second {
		t.Fatalf("caller references must be unique, got %q and %q", first, second)
	}
}

func TestInvalidateWrapsError(t *testing.T) {
	inv, _ := NewInvalidator("E123EXAMPLE", &fakeCloudFront{err: errors.New("throttled")}, nil)

	if _, err := inv.Invalidate(context.Background(), sitePaths); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInvalidateRejectsEmptyPaths(t *testing.T) {
	inv, _ := NewInvalidator("E123EXAMPLE", &fakeCloudFront{}, nil)

	if _, err := inv.Invalidate(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty path list")
	}
}
