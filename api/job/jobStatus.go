package job

// Status of a tracked job. Stored as strings so the jobStatuses collection
// stays readable with plain mongo tooling
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

const TypeStitch = "stitch"

// JobStatus mirrors the jobStatuses collection. JobID doubles as the mongo _id
// so change stream watchers can match on the document key alone
type JobStatus struct {
	JobID                 string   `json:"jobId" bson:"_id"`
	Status                Status   `json:"status" bson:"status"`
	Message               string   `json:"message" bson:"message"`
	LogID                 string   `json:"logId" bson:"logId"`
	StartUnixTimeSec      uint32   `json:"startUnixTimeSec" bson:"startUnixTimeSec"`
	LastUpdateUnixTimeSec uint32   `json:"lastUpdateUnixTimeSec" bson:"lastUpdateUnixTimeSec"`
	EndUnixTimeSec        uint32   `json:"endUnixTimeSec" bson:"endUnixTimeSec"`
	OutputFilePath        string   `json:"outputFilePath" bson:"outputFilePath"`
	OtherLogFiles         []string `json:"otherLogFiles" bson:"otherLogFiles"`
	JobType               string   `json:"jobType" bson:"jobType"`
	JobItemID             string   `json:"jobItemId" bson:"jobItemId"`
	Name                  string   `json:"name" bson:"name"`
	RequestorUserID       string   `json:"requestorUserId" bson:"requestorUserId"`
}
