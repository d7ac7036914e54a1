// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package stitchRunner

import "math"

/* How many nodes for a stitch batch?

Composites are independent of each other, so unlike a quantification there is
no shared dataset to partition, it's a straight split of the annotation list.
The trade-off is only pod overhead vs parallelism:
  - A pod takes ~10-15sec to schedule and pull, a single merge is ~1-2sec of
    tile reads + pixel copies. One pod per composite wastes most of its life
    starting up.
  - One pod grinding through hundreds serialises a batch that's embarrassingly
    parallel.

So the config says how many composites a node should own (AnnotationsPerNode,
default 8, keeps startup under ~10% of pod life) and we partition up to the
node cap.
*/

// EstimateNodeCount - how many stitch nodes a batch of this size should run
func EstimateNodeCount(annotationCount int32, annotationsPerNode int32, maxNodes int32) int32 {
	if annotationsPerNode <= 0 {
		annotationsPerNode = 1
	}

	count := (annotationCount + annotationsPerNode - 1) / annotationsPerNode

	if count > maxNodes {
		count = maxNodes
	}
	if count < 1 {
		count = 1
	}

	return count
}

// AnnotationsPerNode - each node's share when the node count was decided (or
// overridden) up front
func AnnotationsPerNode(annotationCount int32, nodeCount int32) int32 {
	if nodeCount <= 0 {
		nodeCount = 1
	}

	return int32(math.Ceil(float64(annotationCount+nodeCount-1) / float64(nodeCount)))
}
