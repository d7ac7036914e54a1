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

import "fmt"

func Example_estimateNodeCount() {
	// Typical viewer session batch, default 8 composites per node
	fmt.Println(EstimateNodeCount(100, 8, 20))
	// Exact multiple shouldn't round up
	fmt.Println(EstimateNodeCount(64, 8, 20))
	// One past the multiple needs one more node
	fmt.Println(EstimateNodeCount(65, 8, 20))
	// Big overnight batch hits the node cap
	fmt.Println(EstimateNodeCount(500, 8, 20))
	// Tiny batch still gets a node, not a fleet
	fmt.Println(EstimateNodeCount(3, 8, 20))
	// Empty batch shouldn't ask for 0 nodes
	fmt.Println(EstimateNodeCount(0, 8, 20))
	// Unset per-node share behaves as 1 each, capped
	fmt.Println(EstimateNodeCount(100, 0, 20))

	// Output:
	// 13
	// 8
	// 9
	// 20
	// 1
	// 1
	// 20
}

func Example_annotationsPerNode() {
	// Share for the node counts estimated above
	fmt.Println(AnnotationsPerNode(100, 13))
	fmt.Println(AnnotationsPerNode(500, 20))
	// Node count override set higher than needed, shares shrink
	fmt.Println(AnnotationsPerNode(100, 20))
	fmt.Println(AnnotationsPerNode(7, 3))
	fmt.Println(AnnotationsPerNode(8, 3))
	// Bad node count reads as a single node
	fmt.Println(AnnotationsPerNode(5, 0))

	// Output:
	// 9
	// 26
	// 6
	// 3
	// 4
	// 5
}
