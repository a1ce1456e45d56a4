package store

import (
	"bytes"
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/fabricpdf/pkg/errors"
)

// GridFSConfig configures a GridFS store.
type GridFSConfig struct {
	URI      string
	Database string
	Bucket   string

	// BaseURL is the public URL of the server that streams artifacts back.
	BaseURL string
}

// GridFS stores artifacts in a MongoDB GridFS bucket.
type GridFS struct {
	client  *mongo.Client
	bucket  *gridfs.Bucket
	baseURL string
}

// NewGridFS connects to MongoDB and opens the bucket.
func NewGridFS(ctx context.Context, cfg GridFSConfig) (*GridFS, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mongodb connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "mongodb ping")
	}
	g, err := NewGridFSFromDatabase(client.Database(cfg.Database), cfg.Bucket, cfg.BaseURL)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	g.client = client
	return g, nil
}

// NewGridFSFromDatabase opens a bucket on an existing database handle.
// Close does not disconnect a client it did not create.
func NewGridFSFromDatabase(db *mongo.Database, bucket, baseURL string) (*GridFS, error) {
	opts := options.GridFSBucket()
	if bucket != "" {
		opts.SetName(bucket)
	}
	b, err := gridfs.NewBucket(db, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "gridfs bucket")
	}
	return &GridFS{bucket: b, baseURL: baseURL}, nil
}

// Name implements Store.
func (g *GridFS) Name() string { return "gridfs" }

// Store uploads the artifact and returns <base>/artifacts/<objectID>.
func (g *GridFS) Store(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "gridfs upload")
	}
	meta := bson.D{
		{Key: "contentType", Value: a.ContentType()},
		{Key: "kind", Value: string(a.ContentKind)},
	}
	id, err := g.bucket.UploadFromStream(a.Name, bytes.NewReader(a.Data), options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "gridfs upload")
	}
	return artifactURL(g.baseURL, id.Hex()), nil
}

// Open implements Opener. id is the hex object id.
func (g *GridFS) Open(ctx context.Context, id string) (*Object, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New(errors.ErrCodeNotFound, "artifact %q not found", id)
	}
	stream, err := g.bucket.OpenDownloadStream(oid)
	if stderrors.Is(err, gridfs.ErrFileNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "artifact %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "gridfs open %s", id)
	}

	file := stream.GetFile()
	contentType := contentTypeOf(file.Name)
	if v, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok && v != "" {
		contentType = v
	}
	return &Object{
		ReadCloser:  stream,
		Name:        file.Name,
		ContentType: contentType,
		Size:        file.Length,
		ModTime:     file.UploadDate,
	}, nil
}

// Close disconnects the client when the store created it.
func (g *GridFS) Close(ctx context.Context) error {
	if g.client == nil {
		return nil
	}
	return g.client.Disconnect(ctx)
}

var (
	_ Store  = (*GridFS)(nil)
	_ Opener = (*GridFS)(nil)
)
