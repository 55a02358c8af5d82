package domain

var Tables = []interface{}{
	&SendRecord{},
	&WebhookEvent{},
}
