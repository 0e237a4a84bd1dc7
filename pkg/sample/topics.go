// pkg/sample/topics.go
package sample

const (
	WantsCreateTopic     = "wants-create-sample"
	CompletedCreateTopic = "completed-create-sample"

	WantsUpdateTopic     = "wants-update-sample"
	CompletedUpdateTopic = "completed-update-sample"

	WantsDeleteTopic     = "wants-delete-sample"
	CompletedDeleteTopic = "completed-delete-sample"

	WantsGetTopic     = "wants-get-sample"
	CompletedGetTopic = "completed-get-sample"

	WantsGetAllTopic     = "wants-get-samples"
	CompletedGetAllTopic = "completed-get-samples"
)

// AllTopics lists every request and reply topic of the sample service.
func AllTopics() []string {
	return []string{
		WantsCreateTopic, CompletedCreateTopic,
		WantsUpdateTopic, CompletedUpdateTopic,
		WantsDeleteTopic, CompletedDeleteTopic,
		WantsGetTopic, CompletedGetTopic,
		WantsGetAllTopic, CompletedGetAllTopic,
	}
}
