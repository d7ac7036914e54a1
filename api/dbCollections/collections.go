package dbCollections

// All the DB collection names, so there's no confusion among all our code, also one place to rename
const CatalogRecordsName = "catalogRecords"
const JobStatusName = "jobStatuses"
const MosaicsName = "mosaics"
const StitchNodeVersionName = "stitchNodeVersion"
