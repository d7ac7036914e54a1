package kubernetes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/microstitch/core/core/logger"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubeHelper owns the clientset the kubernetes stitch engine schedules pods
// through. Bootstrap picks in-cluster vs kubeconfig credentials based on
// where the API itself is running.
type KubeHelper struct {
	Clientset  *kubernetes.Clientset
	Kubeconfig string
	Log        logger.ILogger
}

func (k *KubeHelper) Bootstrap(location string, apiLog logger.ILogger) {
	k.Log = apiLog

	// Engines share one helper, second Bootstrap is a no-op
	if k.Clientset != nil && !reflect.ValueOf(k.Clientset.CoreV1()).IsNil() {
		k.Log.Infof("Kubernetes already bootstrapped")
		return
	}

	conf, err := k.restConfig(location)
	if err != nil {
		k.Log.Errorf("Kubernetes config failed for location \"%v\": %v", location, err.Error())
	}

	clientset, err := kubernetes.NewForConfig(conf)
	if err != nil {
		k.Log.Errorf("Kubernetes NewForConfig failed: %v", err.Error())
	}
	k.Clientset = clientset
}

func (k *KubeHelper) restConfig(location string) (*rest.Config, error) {
	// "external" means we're outside the cluster (local dev), anything else
	// assumes the API pod's own service account
	if location == "external" {
		k.Log.Debugf("Bootstrapping kubernetes from kubeconfig: %v", k.Kubeconfig)
		return clientcmd.BuildConfigFromFlags("", k.Kubeconfig)
	}

	k.Log.Debugf("Bootstrapping kubernetes in-cluster")
	return rest.InClusterConfig()
}

// GetPodLogs - capture a pod's output so stitch node failures end up in our own log
func (k *KubeHelper) GetPodLogs(pod apiv1.Pod) string {
	req := k.Clientset.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &apiv1.PodLogOptions{})

	stream, err := req.Stream(context.TODO())
	if err != nil {
		return fmt.Sprintf("failed to open pod log stream: %v", err)
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return fmt.Sprintf("failed to read pod log: %v", err)
	}

	return buf.String()
}

// DeletePod - foreground deletion, so by the time this returns without error
// the pod's containers are gone too
func (k *KubeHelper) DeletePod(namespace string, name string) error {
	policy := metav1.DeletePropagationForeground
	return k.Clientset.CoreV1().Pods(namespace).Delete(context.TODO(), name, metav1.DeleteOptions{
		PropagationPolicy: &policy,
	})
}
