// Package s3 serves sealed log segments stored in Amazon S3.
//
// A Device issues one ranged GetObject per cache miss, so it is best used
// behind the cached reader:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//
//	dev, err := walcaches3.Open(ctx, client, "my-bucket", walcaches3.Key("wal/", "000001.seg"))
//	if err != nil {
//	    return err
//	}
//	r := walcache.NewReader(dev)
//
// UploadSegment archives a sealed segment using the S3 transfer manager.
package s3
