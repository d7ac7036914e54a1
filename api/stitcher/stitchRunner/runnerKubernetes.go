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

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/kubernetes"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

///////////////////////////////////////////////////////////////////////////////////////////
// Stitching in Kubernetes. Each merge becomes one stitch-node pod running the
// same image engine as the API would in-process. The orchestrator's worker
// pool decides how many of these run at once, so the pool size is the fleet
// size for a batch.

type kubernetesRunner struct {
	dockerImage string
	fs          fileaccess.FileAccess
	cfg         config.APIConfig
	kubeHelper  kubernetes.KubeHelper
}

func (r *kubernetesRunner) Merge(ctx context.Context, req MergeRequest) error {
	// Make a JSON string out of the node params so they can be passed in
	paramsJSON, err := json.Marshal(NodeParams{
		JobID:        req.JobID,
		JobsBucket:   r.cfg.StitchJobsBucket,
		MosaicBucket: r.cfg.MosaicBucket,
		Requests:     []MergeRequest{req},
	})
	if err != nil {
		return fmt.Errorf("failed to serialise node params for annotation: %v: %v", req.AnnotationID, err)
	}

	jobid := fmt.Sprintf("job-%v", req.JobID)
	pod := getPodObject(string(paramsJSON), req, r.dockerImage, jobid, r.cfg.StitchNamespace, r.cfg.EnvironmentName)

	co := metav1.CreateOptions{}
	pod, err = r.kubeHelper.Clientset.CoreV1().Pods(pod.Namespace).Create(context.TODO(), pod, co)
	if err != nil {
		return fmt.Errorf("pod create failed for annotation: %v, namespace: %v: %v", req.AnnotationID, r.cfg.StitchNamespace, err)
	}

	r.kubeHelper.Log.Infof("Creating pod %v for annotation %v in namespace %v...", pod.Name, req.AnnotationID, pod.Namespace)

	// Now wait for it to finish
	startUnix := time.Now().Unix()
	maxEndUnix := startUnix + int64(r.cfg.JobMaxTimeSec)

	lastPhase := ""

	for currUnix := time.Now().Unix(); currUnix < maxEndUnix; currUnix = time.Now().Unix() {
		// Check kubernetes pod status
		latest, err := r.kubeHelper.Clientset.CoreV1().Pods(pod.Namespace).Get(context.TODO(), pod.Name, metav1.GetOptions{})
		if err != nil {
			r.kubeHelper.Log.Errorf("Failed to get status of pod: %v, namespace: %v: %v", pod.Name, pod.Namespace, err)
		} else {
			phase := string(latest.Status.Phase)
			if lastPhase != phase {
				r.kubeHelper.Log.Infof("%v phase: %v, pod name: %v, namespace: %v", req.AnnotationID, latest.Status.Phase, pod.Name, pod.Namespace)
				lastPhase = phase
			}

			if latest.Status.Phase != apiv1.PodRunning && latest.Status.Phase != apiv1.PodPending {
				failed := latest.Status.Phase == apiv1.PodFailed
				if failed {
					// Pod output is the only place the node's error landed
					r.kubeHelper.Log.Errorf("Stitch node pod %v failed, pod logs:\n%v", pod.Name, r.kubeHelper.GetPodLogs(*latest))
				}

				r.deletePod(pod.Namespace, pod.Name)

				if failed {
					return fmt.Errorf("stitch node pod %v failed for annotation: %v", pod.Name, req.AnnotationID)
				}

				// Pod says done, believe it only if the output landed
				exists, err := r.fs.ObjectExists(r.cfg.StitchJobsBucket, req.OutputPath)
				if err != nil {
					return fmt.Errorf("failed to check composite output %v: %v", req.OutputPath, err)
				}
				if !exists {
					return fmt.Errorf("stitch node pod %v finished without writing %v", pod.Name, req.OutputPath)
				}

				return nil
			}
		}

		select {
		case <-ctx.Done():
			r.deletePod(pod.Namespace, pod.Name)
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}

	r.deletePod(pod.Namespace, pod.Name)
	return fmt.Errorf("timed out waiting for stitch node pod %v", pod.Name)
}

func (r *kubernetesRunner) deletePod(namespace string, name string) {
	r.kubeHelper.Log.Infof("Deleting pod: %v from namespace: %v", name, namespace)

	err := r.kubeHelper.DeletePod(namespace, name)
	if err != nil {
		r.kubeHelper.Log.Errorf("Failed to remove pod: %v, namespace: %v: %v", name, namespace, err)
	}
}

// Kubernetes names and label values are stricter than annotation IDs, which
// come from the viewer and can hold anything a user typed
func makeNodeName(annotationID string) string {
	sb := strings.Builder{}
	for _, c := range strings.ToLower(annotationID) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			sb.WriteRune(c)
		} else {
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

func getPodObject(paramsStr string, req MergeRequest, dockerImage string, jobid, namespace string, envName string) *apiv1.Pod {
	sec := apiv1.LocalObjectReference{Name: "api-auth"}
	application := "stitch-node"
	node := makeNodeName(req.AnnotationID)
	instance := fmt.Sprintf("%s-%s", application, node)
	return &apiv1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      jobid + "-" + node,
			Namespace: namespace,
			Labels: map[string]string{
				"microstitch.org/application": application,
				"microstitch.org/environment": envName,
				"app.kubernetes.io/name":      application,
				"app.kubernetes.io/instance":  instance,
				"app.kubernetes.io/component": application,
				"app":                         node,
				"owner":                       makeNodeName(req.RequestorUserID),
				"jobid":                       jobid,
			},
		},
		Spec: apiv1.PodSpec{
			ImagePullSecrets:   []apiv1.LocalObjectReference{sec},
			RestartPolicy:      apiv1.RestartPolicyNever,
			ServiceAccountName: "microstitch-api",
			Containers: []apiv1.Container{
				{
					Name:            node,
					Image:           dockerImage,
					ImagePullPolicy: apiv1.PullAlways,
					Resources: apiv1.ResourceRequirements{
						Requests: apiv1.ResourceList{
							// The request determines how much cpu is reserved on the Node and will affect scheduling
							"cpu": resource.MustParse("500m"),
						},
						Limits: apiv1.ResourceList{
							// Merges are mostly tile reads, they don't need a whole node
							"cpu": resource.MustParse("2000m"),
						},
					},

					Env: []apiv1.EnvVar{
						{Name: StitchNodeParamsEnvVar, Value: paramsStr},
					},
				},
			},
		},
	}
}
