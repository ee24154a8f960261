/*
Package metrics provides Prometheus metrics for fabricapi record conversion.

All collectors are package-level variables registered with the default
registry in init. The codec package updates them on every Marshal and
Unmarshal call; the archive package counts its reads and writes. fabricctl
exposes them over HTTP when started with --metrics-addr.

# Metrics Catalog

fabricapi_codec_operations_total{record, operation, result}:
  - Type: Counter
  - Conversions per record type, split by decode/encode and success/error

fabricapi_codec_duration_seconds{operation}:
  - Type: Histogram
  - Wall time of one Marshal or Unmarshal call

fabricapi_codec_unknown_properties_total{record}:
  - Type: Counter
  - Properties skipped because the record does not know them. A rising
    count usually means the server is newer than this client.

fabricapi_codec_union_dispatch_total{union, variant}:
  - Type: Counter
  - Discriminated decodes by selected variant

fabricapi_archive_records_total{operation, result}:
  - Type: Counter
  - Archive put/get/list/delete operations

# Timer Helper

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.CodecDuration, metrics.OperationDecode)
*/
package metrics
