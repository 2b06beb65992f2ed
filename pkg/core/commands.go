package core

// CommandType identifies one of the ≥50 logical commands the dispatcher
// (pkg/kernel) accepts, matching §4.3's "one command enum + one struct per
// command" contract. Values are grouped: simulation-fabric commands get a
// fully-modeled struct each (they are the core, §1); the individual
// arithmetic kernels are out of scope for their internals (§1) and share one
// generic struct — only their dispatch contract (validate/bind/enqueue)
// matters here.
type CommandType string

// Core simulation-fabric commands (§4.4-§4.10).
const (
	CmdSubQGStep             CommandType = "subqg.step"
	CmdMycelReinforce        CommandType = "mycel.reinforce"
	CmdMycelDiffuseDecay     CommandType = "mycel.diffuse_decay"
	CmdMycelNutrient         CommandType = "mycel.nutrient"
	CmdMycelColonyUpdate     CommandType = "mycel.colony_update"
	CmdMycelSubQGFeedback    CommandType = "mycel.subqg_feedback"
	CmdMycelPotentialHPIO    CommandType = "mycel.potential_hpio"
	CmdAgentPolicyUpdate     CommandType = "agent.policy_update"
	CmdAdamUpdate            CommandType = "agent.adam_update"
	CmdBrainBridgeCycle      CommandType = "bridge.cycle"
	CmdIzhikevichStep        CommandType = "bridge.izhikevich_step"
	CmdSocialHebbian         CommandType = "bridge.social_hebbian"
	CmdQuantumApplyGate      CommandType = "quantum.apply_gate"
	CmdQuantumApplySequence  CommandType = "quantum.apply_sequence"
	CmdQuantumMeasureProbs   CommandType = "quantum.measure_probabilities"
	CmdRenderFrameImage      CommandType = "render.frame_image"
	CmdRenderFrameBuffer     CommandType = "render.frame_buffer"
	CmdRenderDebugGradient   CommandType = "render.debug_gradient"
)

// ArithmeticOp enumerates the individual arithmetic kernels that are out of
// scope for this driver's internals (§1) — the dispatcher still validates,
// binds and profiles their launch, it just never implements their math.
type ArithmeticOp string

const (
	OpMatmul                      ArithmeticOp = "matmul"
	OpMatmulBackward               ArithmeticOp = "matmul_backward"
	OpSoftmax                      ArithmeticOp = "softmax"
	OpGelu                         ArithmeticOp = "gelu"
	OpLayerNorm                    ArithmeticOp = "layernorm"
	OpConv2DForward                ArithmeticOp = "conv2d_forward"
	OpConv2DBackward               ArithmeticOp = "conv2d_backward"
	OpEmbeddingLookup              ArithmeticOp = "embedding_lookup"
	OpEmbeddingBackward            ArithmeticOp = "embedding_backward"
	OpFusedDiffusion                ArithmeticOp = "fused_diffusion"
	OpHebbianUpdate                 ArithmeticOp = "hebbian_update"
	OpThresholdSpike                ArithmeticOp = "threshold_spike"
	OpShapeLossRewardPenaltyList    ArithmeticOp = "shape_loss_with_reward_penalty_list"
	OpProtoSegmentedSum             ArithmeticOp = "proto_segmented_sum" // atomics32 required
	OpLinguisticPheromoneReinforce  ArithmeticOp = "linguistic_pheromone_reinforce" // atomics32 required
	OpRMSNorm                       ArithmeticOp = "rmsnorm"
	OpAttentionQKV                  ArithmeticOp = "attention_qkv"
	OpAttentionOutput               ArithmeticOp = "attention_output"
	OpDropout                       ArithmeticOp = "dropout"
	OpCrossEntropyLoss              ArithmeticOp = "cross_entropy_loss"
	OpSGDUpdate                     ArithmeticOp = "sgd_update"
	OpRMSPropUpdate                 ArithmeticOp = "rmsprop_update"
	OpBatchNormForward              ArithmeticOp = "batchnorm_forward"
	OpBatchNormBackward             ArithmeticOp = "batchnorm_backward"
	OpMaxPool2DForward               ArithmeticOp = "maxpool2d_forward"
	OpMaxPool2DBackward              ArithmeticOp = "maxpool2d_backward"
	OpAvgPool2DForward               ArithmeticOp = "avgpool2d_forward"
	OpConcat                         ArithmeticOp = "concat"
	OpSplit                          ArithmeticOp = "split"
	OpTranspose                      ArithmeticOp = "transpose"
	OpReduceSum                      ArithmeticOp = "reduce_sum"
	OpReduceMean                     ArithmeticOp = "reduce_mean"
	OpReduceMax                      ArithmeticOp = "reduce_max"
	OpElementwiseAdd                 ArithmeticOp = "elementwise_add"
	OpElementwiseMul                 ArithmeticOp = "elementwise_mul"
	OpSigmoid                        ArithmeticOp = "sigmoid"
	OpTanh                           ArithmeticOp = "tanh_activation"
	OpRelu                           ArithmeticOp = "relu"
	OpLeakyRelu                      ArithmeticOp = "leaky_relu"
	OpClipGradNorm                   ArithmeticOp = "clip_grad_norm"
	OpCosineSimilarity               ArithmeticOp = "cosine_similarity"
	OpOneHotEncode                   ArithmeticOp = "one_hot_encode"
)

// AllArithmeticOps lists every ArithmeticOp, used to pre-register the
// generic handler for each one at dispatcher construction time.
var AllArithmeticOps = []ArithmeticOp{
	OpMatmul, OpMatmulBackward, OpSoftmax, OpGelu, OpLayerNorm,
	OpConv2DForward, OpConv2DBackward, OpEmbeddingLookup, OpEmbeddingBackward,
	OpFusedDiffusion, OpHebbianUpdate, OpThresholdSpike, OpShapeLossRewardPenaltyList,
	OpProtoSegmentedSum, OpLinguisticPheromoneReinforce, OpRMSNorm,
	OpAttentionQKV, OpAttentionOutput, OpDropout, OpCrossEntropyLoss,
	OpSGDUpdate, OpRMSPropUpdate, OpBatchNormForward, OpBatchNormBackward,
	OpMaxPool2DForward, OpMaxPool2DBackward, OpAvgPool2DForward,
	OpConcat, OpSplit, OpTranspose, OpReduceSum, OpReduceMean, OpReduceMax,
	OpElementwiseAdd, OpElementwiseMul, OpSigmoid, OpTanh, OpRelu, OpLeakyRelu,
	OpClipGradNorm, OpCosineSimilarity, OpOneHotEncode,
}

// NeedsAtomics32 reports whether an arithmetic op requires 32-bit global
// atomics, per §4.3's "atomic-dependent commands must refuse to run when
// the device lacks 32-bit global atomics."
func (op ArithmeticOp) NeedsAtomics32() bool {
	return op == OpProtoSegmentedSum || op == OpLinguisticPheromoneReinforce
}

// ArithmeticCommand is the one generic struct shared by every out-of-scope
// arithmetic kernel (§4.3: "only their dispatch contract matters"). Shape
// carries up to 4 dimensions; a zero in Shape[0] is the "zero-sized but
// well-formed" case that the dispatcher must treat as a trivial success.
type ArithmeticCommand struct {
	Op      ArithmeticOp
	Inputs  []GPUBufferHandle
	Output  GPUBufferHandle
	Shape   [4]int32
	Scalars map[string]float32
	FastMath bool
}

func (c *ArithmeticCommand) Type() CommandType { return CommandType("arith." + string(c.Op)) }

// IsZeroSized reports the trivial-success case from §4.3 step 1.
func (c *ArithmeticCommand) IsZeroSized() bool { return c.Shape[0] == 0 }
