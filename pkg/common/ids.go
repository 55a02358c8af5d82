package common

import (
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cast"
)

var idNode *snowflake.Node

func init() {
	nodeID := cast.ToInt64(os.Getenv("WARELAY_NODE_ID"))
	if nodeID <= 0 || nodeID > 1023 {
		nodeID = 1
	}
	var err error
	idNode, err = snowflake.NewNode(nodeID)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a process-unique int64 identifier.
func UUIDint64() int64 {
	return idNode.Generate().Int64()
}
